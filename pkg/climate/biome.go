package climate

// Biome is a coarse vegetation class derived from a cell's annual
// temperature and precipitation.
type Biome int

const (
	BiomeOcean Biome = iota
	BiomeIceSheet
	BiomeTundra
	BiomeBorealForest
	BiomeTemperateForest
	BiomeGrassland
	BiomeDesert
	BiomeTropicalForest
)

var biomeNames = map[Biome]string{
	BiomeOcean:           "ocean",
	BiomeIceSheet:        "ice sheet",
	BiomeTundra:          "tundra",
	BiomeBorealForest:    "boreal forest",
	BiomeTemperateForest: "temperate forest",
	BiomeGrassland:       "grassland",
	BiomeDesert:          "desert",
	BiomeTropicalForest:  "tropical forest",
}

func (b Biome) String() string {
	if name, ok := biomeNames[b]; ok {
		return name
	}
	return "unknown"
}

// Thresholds of the classification ladder, in K of annual mean
// temperature and mm of annual precipitation.
const (
	iceSheetMeanK  = 263.15
	tundraMeanK    = freezePointK
	borealMeanK    = 281.15
	tropicalMeanK  = 291.15
	desertAnnualMM = 250.0
	forestAnnualMM = 700.0
	jungleAnnualMM = 1700.0
)

// Classify maps a cell's annual climate to a biome. Water cells are
// ocean, or ice sheet under permanent sea ice. Land walks a ladder from
// cold to hot and dry to wet; each rung claims the cell before the next
// is considered.
func Classify(c CellClimate, water bool) Biome {
	if water {
		if c.HasSeaIce && c.SeaIce.IsFull() {
			return BiomeIceSheet
		}
		return BiomeOcean
	}
	total := c.AnnualRainMM + c.AnnualSnowMM
	switch {
	case (c.HasSnowCover && c.SnowCover.IsFull()) || c.MeanTempK < iceSheetMeanK:
		return BiomeIceSheet
	case c.MeanTempK < tundraMeanK:
		return BiomeTundra
	case total < desertAnnualMM:
		return BiomeDesert
	case c.MeanTempK >= tropicalMeanK && total >= jungleAnnualMM:
		return BiomeTropicalForest
	case c.MeanTempK < borealMeanK:
		return BiomeBorealForest
	case total >= forestAnnualMM:
		return BiomeTemperateForest
	default:
		return BiomeGrassland
	}
}
