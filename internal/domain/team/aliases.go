package team

// Aliases maps a provider spelling to the canonical team name.
type Aliases map[string]string

var defaultAliases = Aliases{
	"Man City":          "Manchester City",
	"Man Utd":           "Manchester United",
	"Spurs":             "Tottenham",
	"Brighton":          "Brighton & Hove Albion",
	"West Ham":          "West Ham United",
	"Newcastle":         "Newcastle United",
	"Wolves":            "Wolverhampton Wanderers",
	"Leicester":         "Leicester City",
	"Crystal Palace":    "Crystal Palace",
	"Nottingham Forest": "Nottingham Forest",
	"Leeds":             "Leeds United",
	"Everton":           "Everton",
	"Brentford":         "Brentford",
	"Fulham":            "Fulham",
	"Bournemouth":       "AFC Bournemouth",
	"Sheffield United":  "Sheffield United",
	"Burnley":           "Burnley",
	"Luton":             "Luton Town",

	// football-data.org long names.
	"Arsenal FC":                 "Arsenal",
	"Aston Villa FC":             "Aston Villa",
	"Brentford FC":               "Brentford",
	"Brighton & Hove Albion FC":  "Brighton & Hove Albion",
	"Burnley FC":                 "Burnley",
	"Chelsea FC":                 "Chelsea",
	"Crystal Palace FC":          "Crystal Palace",
	"Everton FC":                 "Everton",
	"Fulham FC":                  "Fulham",
	"Ipswich Town FC":            "Ipswich Town",
	"Leeds United FC":            "Leeds United",
	"Leicester City FC":          "Leicester City",
	"Liverpool FC":               "Liverpool",
	"Luton Town FC":              "Luton Town",
	"Manchester City FC":         "Manchester City",
	"Manchester United FC":       "Manchester United",
	"Newcastle United FC":        "Newcastle United",
	"Norwich City FC":            "Norwich City",
	"Nottingham Forest FC":       "Nottingham Forest",
	"Sheffield United FC":        "Sheffield United",
	"Southampton FC":             "Southampton",
	"Tottenham Hotspur FC":       "Tottenham",
	"Watford FC":                 "Watford",
	"West Ham United FC":         "West Ham United",
	"Wolverhampton Wanderers FC": "Wolverhampton Wanderers",

	// the-odds-api spellings.
	"Tottenham Hotspur":        "Tottenham",
	"Brighton and Hove Albion": "Brighton & Hove Albion",
}

// DefaultAliases returns a fresh copy of the built-in table.
func DefaultAliases() Aliases {
	out := make(Aliases, len(defaultAliases))
	for alias, canonical := range defaultAliases {
		out[alias] = canonical
	}
	return out
}

// Merge returns a copy of a with the entries of overrides applied on top.
func (a Aliases) Merge(overrides map[string]string) Aliases {
	out := make(Aliases, len(a)+len(overrides))
	for alias, canonical := range a {
		out[alias] = canonical
	}
	for alias, canonical := range overrides {
		out[alias] = canonical
	}
	return out
}
