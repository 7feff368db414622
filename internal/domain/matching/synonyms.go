package matching

// DefaultMarketSynonyms carries the per-source market abbreviation tables
// observed in production feeds. Keys are lowercased source names, then
// lowercased raw market strings. Deployments extend this via config rather
// than editing code.
func DefaultMarketSynonyms() map[string]map[string]string {
	return map[string]map[string]string{
		"draftkings": {
			"pts":               "Points",
			"reb":               "Rebounds",
			"ast":               "Assists",
			"pts + rebs":        "Points + Rebounds",
			"pts + asts":        "Points + Assists",
			"pts + rebs + asts": "Points + Rebounds + Assists",
			"threes":            "Three Pointers Made",
			"pass yds":          "Passing Yards",
			"rush yds":          "Rushing Yards",
			"rec yds":           "Receiving Yards",
			"pass tds":          "Passing Touchdowns",
			"anytime td":        "Anytime Touchdown",
		},
		"fanduel": {
			"pts":          "Points",
			"rebs":         "Rebounds",
			"asts":         "Assists",
			"pts+reb":      "Points + Rebounds",
			"pts+ast":      "Points + Assists",
			"pts+reb+ast":  "Points + Rebounds + Assists",
			"made threes":  "Three Pointers Made",
			"pass yds":     "Passing Yards",
			"rush yds":     "Rushing Yards",
			"rec yds":      "Receiving Yards",
			"pass + rush":  "Passing + Rushing Yards",
			"anytime td":   "Anytime Touchdown",
		},
		"caesars": {
			"p+r":   "Points + Rebounds",
			"p+a":   "Points + Assists",
			"p+r+a": "Points + Rebounds + Assists",
			"3pm":   "Three Pointers Made",
		},
		"betmgm": {
			"pts + rebs":    "Points + Rebounds",
			"pts + assists": "Points + Assists",
			"3-pointers":    "Three Pointers Made",
			"td scorer":     "Anytime Touchdown",
		},
		"pinnacle": {
			"pts":     "Points",
			"pts+reb": "Points + Rebounds",
		},
	}
}
