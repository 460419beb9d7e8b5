package model

import "fmt"

// ServiceType identifies the trade a professional offers.
type ServiceType string

const (
	ServiceElectricista      ServiceType = "electricista"
	ServicePlomero           ServiceType = "plomero"
	ServiceGasista           ServiceType = "gasista"
	ServicePintor            ServiceType = "pintor"
	ServiceLimpieza          ServiceType = "limpieza"
	ServiceJardineroPoda     ServiceType = "jardinero_poda"
	ServiceTecnicoAire       ServiceType = "tecnico_aire"
	ServiceTecnicoHeladeras  ServiceType = "tecnico_heladeras"
	ServiceTecnicoLavarropas ServiceType = "tecnico_lavarropas"
	ServiceTecnicoTV         ServiceType = "tecnico_tv"
)

// ServiceTypes lists every supported trade.
var ServiceTypes = []ServiceType{
	ServiceElectricista,
	ServicePlomero,
	ServiceGasista,
	ServicePintor,
	ServiceLimpieza,
	ServiceJardineroPoda,
	ServiceTecnicoAire,
	ServiceTecnicoHeladeras,
	ServiceTecnicoLavarropas,
	ServiceTecnicoTV,
}

// Valid reports whether t is a known service type.
func (t ServiceType) Valid() bool {
	for _, s := range ServiceTypes {
		if s == t {
			return true
		}
	}
	return false
}

// Location is a WGS84 coordinate pair in degrees.
type Location struct {
	Lat float64 `json:"latitud"`
	Lon float64 `json:"longitud"`
}

// Valid reports whether the coordinates are within the WGS84 domain.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lon >= -180 && l.Lon <= 180
}

// Professional represents a registered service professional. Earnings and the
// completed-job counter are lifetime aggregates updated exactly once per
// completed request.
type Professional struct {
	ID      string      `json:"id"`
	Name    string      `json:"nombre"`
	Phone   string      `json:"telefono"`
	Email   string      `json:"email"`
	Service ServiceType `json:"tipo_servicio"`
	Location
	Available bool `json:"disponible"`
	// BaseRate is the per-job base rate in currency minor units (centavos).
	BaseRate      int64 `json:"tarifa_base"`
	CompletedJobs int   `json:"trabajos_completados"`
	Earnings      int64 `json:"total_ganado"`
}

// Validate checks that the professional record is sound.
func (p Professional) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !p.Service.Valid() {
		return fmt.Errorf("unknown service type %q", p.Service)
	}
	if !p.Location.Valid() {
		return fmt.Errorf("coordinates out of range")
	}
	if p.BaseRate <= 0 {
		return fmt.Errorf("base rate must be positive")
	}
	return nil
}
