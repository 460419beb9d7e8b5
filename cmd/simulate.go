package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/changared/dispatch/core/dispatch"
	"github.com/changared/dispatch/core/geo"
	"github.com/changared/dispatch/core/model"
	"github.com/changared/dispatch/core/pricing"
	"github.com/changared/dispatch/infra/logger"
	"github.com/changared/dispatch/infra/mqtt"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run an in-memory dispatch round without a broker",
	RunE:  runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	index := geo.NewIndex()
	pros := []model.Professional{
		{ID: "electricista-1", Name: "Marta", Service: model.ServiceElectricista,
			Location: model.Location{Lat: -27.3761, Lon: -55.8961}, Available: true, BaseRate: 15000},
		{ID: "electricista-2", Name: "Hugo", Service: model.ServiceElectricista,
			Location: model.Location{Lat: -27.4076, Lon: -55.8961}, Available: true, BaseRate: 13000},
	}
	for _, p := range pros {
		if err := index.Upsert(p); err != nil {
			return err
		}
	}

	var pcfg pricing.Config
	pcfg.SetDefaults()
	engine, err := pricing.NewEngine(pcfg)
	if err != nil {
		return err
	}
	coord, err := dispatch.NewCoordinator(index, engine, mqtt.NewMockNotifier(), nil, nil, logger.New("simulate"))
	if err != nil {
		return err
	}
	defer func() { _ = coord.Close() }()

	req, err := coord.CreateRequest(dispatch.CreateParams{
		ClientID:    "cliente-demo",
		Service:     model.ServiceElectricista,
		Category:    model.CategorySimpleRepair,
		Description: "corto en la cocina",
		Location:    model.Location{Lat: -27.3671, Lon: -55.8961},
		Urgency:     model.UrgencyUrgent,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "solicitud %s asignada a %s (%.2f km)\n", req.ID, req.ProfessionalID, req.DistanceKm)
	fmt.Fprintf(cmd.OutOrStdout(), "total $%.2f, comision $%.2f, pago al profesional $%.2f\n",
		float64(req.Price.Total)/100, float64(req.Price.Commission)/100, float64(req.Price.Payout)/100)

	res, err := coord.Reject(req.ID, req.ProfessionalID, "ocupado")
	if err != nil {
		return err
	}
	if res.Reassigned {
		fmt.Fprintf(cmd.OutOrStdout(), "rechazo: reasignada a %s\n", res.NewProfessionalID)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "rechazo: sin profesionales, solicitud cancelada")
	}
	return nil
}
