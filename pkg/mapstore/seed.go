package mapstore

// Seed returns the built-in counter-UAS market map used to initialize an
// empty store and to serve degraded reads when Redis is unreachable.
// Each call returns a fresh copy, so callers can mutate the result freely.
func Seed() MapSet {
	return MapSet{
		"CUAS": {
			ID:         "CUAS",
			Name:       "CUAS",
			Categories: []string{"Sensing", "Deciding", "Effecting"},
			Firms: []Firm{
				// Sensing
				{ID: "s1", Name: "Chaos Industries", Category: "Sensing", Subcategory: "Radar"},
				{ID: "s2", Name: "Fortem Technologies", Category: "Sensing", Subcategory: "Radar"},
				{ID: "s3", Name: "Hidden Level", Category: "Sensing", Subcategory: "Radar"},
				{ID: "s4", Name: "MatrixSpace", Category: "Sensing", Subcategory: "Radar"},
				{ID: "s5", Name: "BLUEiQ", Category: "Sensing", Subcategory: "Acoustic"},
				{ID: "s6", Name: "Sky Fortress", Category: "Sensing", Subcategory: "Acoustic"},
				{ID: "s7", Name: "Squarehead Technology", Category: "Sensing", Subcategory: "Acoustic"},
				{ID: "s8", Name: "Enigma", Category: "Sensing", Subcategory: "Crowdsourcing"},
				// Deciding
				{ID: "d1", Name: "Project Jeff Maas (DZYNE)", Category: "Deciding", Subcategory: "Fire Control"},
				{ID: "d2", Name: "SmartShooter", Category: "Deciding", Subcategory: "Fire Control"},
				{ID: "d3", Name: "ZeroMark", Category: "Deciding", Subcategory: "Fire Control"},
				{ID: "d4", Name: "Anduril Lattice", Category: "Deciding", Subcategory: "C2"},
				{ID: "d5", Name: "Dedrone", Category: "Deciding", Subcategory: "C2"},
				{ID: "d6", Name: "Northrop Grumman", Category: "Deciding", Subcategory: "C2", Product: "FAAD C2"},
				{ID: "d7", Name: "Palantir Maven Smart System", Category: "Deciding", Subcategory: "C2"},
				// Effecting
				{ID: "e1", Name: "Thor Dynamics", Category: "Effecting", Subcategory: "Laser"},
				{ID: "e2", Name: "Anduril Pulsar", Category: "Effecting", Subcategory: "Electronic Attack (jamming)"},
				{ID: "e3", Name: "DZYNE", Category: "Effecting", Subcategory: "Electronic Attack (jamming)", Product: "Dronebuster"},
				{ID: "e4", Name: "Epirus", Category: "Effecting", Subcategory: "HPM (High Power Microwave)", Product: "Leonidas"},
				{ID: "e5", Name: "Project Brendan Nunan (PSI)", Category: "Effecting", Subcategory: "HPM (High Power Microwave)"},
				{ID: "e6", Name: "Hondoq", Category: "Effecting", Subcategory: "EMP (Electro-Magnetic Pulse)"},
				{ID: "e7", Name: "D-fend Solutions", Category: "Effecting", Subcategory: "Cyber"},
			},
		},
	}
}
