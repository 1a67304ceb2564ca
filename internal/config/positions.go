package config

// Bench and injury slots per sport. A roster slot in any other position
// counts as a starter.
var benchPositions = map[string]map[string]bool{
	"mlb": {"BN": true, "IL": true, "IL+": true, "NA": true, "DL": true},
	"nba": {"BN": true, "IL": true, "IL+": true, "INJ": true, "NA": true},
}

// IsBenchPosition reports whether a selected position is a bench or injury
// slot for the given sport. Unknown sports treat only "BN" as bench.
func IsBenchPosition(sport, position string) bool {
	if set, ok := benchPositions[sport]; ok {
		return set[position]
	}
	return position == "BN"
}
