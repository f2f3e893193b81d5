package ensemble

// Quantity names a projected quantity: a driver, a contribution or a composite.
type Quantity string

// Drivers passed through as contributions.
const (
	Temperature Quantity = "temperature"
	Expansion   Quantity = "expansion"
)

// temperatureIntegral names the time-integrated temperature driver. It is
// internal to the contribution models and never reported.
const temperatureIntegral Quantity = "temperature_integral"

// Contributions produced by the contribution models.
const (
	Glacier   Quantity = "glacier"
	GreenSMB  Quantity = "greensmb"
	AntSMB    Quantity = "antsmb"
	GreenDyn  Quantity = "greendyn"
	AntDyn    Quantity = "antdyn"
	LandWater Quantity = "landwater"
)

// Composites, derived purely by summation.
const (
	GMSLR    Quantity = "GMSLR"
	GreenNet Quantity = "greennet"
	AntNet   Quantity = "antnet"
	SheetDyn Quantity = "sheetdyn"
)

// ReportOrder is the order in which quantities are tabulated.
var ReportOrder = []Quantity{
	Temperature, Expansion, Glacier, GreenSMB, AntSMB, GreenDyn, AntDyn,
	LandWater, GMSLR, GreenNet, AntNet, SheetDyn,
}

// Unit returns the physical unit of q.
func (q Quantity) Unit() string {
	switch q {
	case Temperature:
		return "K"
	case temperatureIntegral:
		return "K yr"
	}
	return "m"
}

// LongName describes q for file metadata.
func (q Quantity) LongName() string {
	switch q {
	case GMSLR:
		return "global average sea level change"
	case Expansion:
		return "global average thermosteric sea level change"
	case Temperature:
		return "surface temperature"
	case Glacier:
		return "GMSLR contribution from decrease of glacier mass"
	case GreenSMB:
		return "GMSLR contribution from decrease of Greenland ice sheet mass due to change in SMB"
	case GreenDyn:
		return "GMSLR contribution from decrease of Greenland ice sheet mass due to rapid dynamical change"
	case GreenNet:
		return "GMSLR contribution from decrease of Greenland ice sheet mass"
	case AntSMB:
		return "GMSLR contribution from decrease of Antarctic ice sheet mass due to change in SMB"
	case AntDyn:
		return "GMSLR contribution from decrease of Antarctic ice sheet mass due to rapid dynamical change"
	case AntNet:
		return "GMSLR contribution from decrease of Antarctic ice sheet mass"
	case LandWater:
		return "GMSLR contribution from decrease of land water storage"
	case SheetDyn:
		return "GMSLR contribution from decrease of ice sheet mass due to rapid dynamical change"
	default:
		return string(q)
	}
}
