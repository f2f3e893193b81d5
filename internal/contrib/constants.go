package contrib

// Physical constants of the AR5 assessment.
const (
	// MSLEoGt converts Gt of ice to m of sea-level equivalent.
	MSLEoGt = 1e12 / 3.61e14 * 1e-3

	// EndOfHistory is the last year of the historical period.
	EndOfHistory = 2006

	// CalibrationYear is the year at which the assessed final ranges apply.
	CalibrationYear = 2100
)

const (
	// m SLE lost during 1996-2005 according to AR5 chapter 4.
	dAnt   = (2.37 + 0.13) * 1e-3
	dGreen = (3.21 - 0.30) * 1e-3

	// Fraction of the 1996-2005 Greenland loss attributed to rapid dynamics.
	fGreenDyn = 0.5

	mmToM = 1e-3
)

// Glacier reference: Marzeion's CMIP5 ensemble mean rate for the AR5
// reference period, in mm/yr, and the year the reference period starts.
const (
	glacierRefRate = 0.95
	glacierRefYear = 1996
)

// DefaultGlacierVolume is the initial glacier mass from AR5 table 4.2 in m SLE.
const DefaultGlacierVolume = (412.0 - 96.3) * 1e-3

// Greenland SMB.
const (
	// Delta T of the Greenland reference period wrt the AR5 reference period.
	dtGreen = -0.146
)

// Antarctic SMB, [mean, sd] pairs from Gregory & Huybrechts (2006).
var (
	pcoK = [2]float64{5.1, 1.5} // % change in SMB per K of Antarctic warming
	koKg = [2]float64{1.1, 0.2} // Antarctic warming per K of global warming
)

const (
	antMeanSMB = 1923.0 // model-mean time-mean 1979-2010 Gt/yr, 13.3.3.2
	antSMax    = 0.35   // max SMB-dynamics interaction, 13.SM.1.5
)
