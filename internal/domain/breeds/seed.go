package breeds

var defaultCatalog = NewCatalog([]Entry{
	{"sahiwal", BreedRecord{
		Name:            "Sahiwal",
		Type:            "Cattle",
		Origin:          "Punjab region (India/Pakistan)",
		Characteristics: "Reddish dun to brown color, loose skin, hump in males, high milk yield",
		MilkProduction:  "2000-3000 kg per lactation",
		Purpose:         "Dairy",
		Adaptation:      "Heat tolerant, resistant to ticks and diseases",
	}},
	{"gir", BreedRecord{
		Name:            "Gir",
		Type:            "Cattle",
		Origin:          "Gujarat, India",
		Characteristics: "Distinctive curved horns, red and white spotted skin, prominent hump",
		MilkProduction:  "1500-2000 kg per lactation",
		Purpose:         "Dairy",
		Adaptation:      "Well adapted to harsh climates",
	}},
	{"red_sindhi", BreedRecord{
		Name:            "Red Sindhi",
		Type:            "Cattle",
		Origin:          "Sindh region (Pakistan)",
		Characteristics: "Deep red color, drooping ears, moderate hump",
		MilkProduction:  "1800-2600 kg per lactation",
		Purpose:         "Dairy",
		Adaptation:      "Heat tolerant, good resistance to diseases",
	}},
	{"tharparkar", BreedRecord{
		Name:            "Tharparkar",
		Type:            "Cattle",
		Origin:          "Tharparkar district (Pakistan)",
		Characteristics: "White or light gray coat, medium size, lyre-shaped horns",
		MilkProduction:  "1800-2600 kg per lactation",
		Purpose:         "Dual purpose (dairy and draught)",
		Adaptation:      "Well suited to arid conditions",
	}},
	{"jangli_bhains", BreedRecord{
		Name:            "Jangli Bhains (Wild Buffalo)",
		Type:            "Buffalo",
		Origin:          "Assam and other Northeastern states, India",
		Characteristics: "Massive body, large curved horns, dark gray to black skin",
		MilkProduction:  "Not typically milked",
		Purpose:         "Conservation, sometimes used for draught",
		Adaptation:      "Well adapted to swampy areas",
	}},
	{"murrah", BreedRecord{
		Name:            "Murrah",
		Type:            "Buffalo",
		Origin:          "Haryana and Punjab, India",
		Characteristics: "Jet black color, short and tightly curved horns, muscular body",
		MilkProduction:  "1500-2500 kg per lactation",
		Purpose:         "Dairy",
		Adaptation:      "Adapts well to various climatic conditions",
	}},
	{"jaffrabadi", BreedRecord{
		Name:            "Jaffrabadi",
		Type:            "Buffalo",
		Origin:          "Gujarat, India",
		Characteristics: "Heavy build, broad forehead, curved horns",
		MilkProduction:  "2000-3000 kg per lactation",
		Purpose:         "Dairy",
		Adaptation:      "Suitable for hot and humid climates",
	}},
	{"nili_ravi", BreedRecord{
		Name:            "Nili-Ravi",
		Type:            "Buffalo",
		Origin:          "Punjab region (India/Pakistan)",
		Characteristics: "Black body with white markings on face and legs, wall eyes",
		MilkProduction:  "1800-2500 kg per lactation",
		Purpose:         "Dairy",
		Adaptation:      "Good adaptability to different environments",
	}},
})

// Default returns the built-in catalog of Indian cattle and buffalo breeds.
func Default() *Catalog { return defaultCatalog }
