package domain

// ScheduleAnalysis regroupe les statistiques calculées sur le store local.
type ScheduleAnalysis struct {
	Total               int             `json:"total"`
	AverageIntervalDays float64         `json:"averageIntervalDays"`
	ByWeekday           map[string]int  `json:"byWeekday"`
	ByLeader            map[string]int  `json:"byLeader"`
	ByYear              map[string]int  `json:"byYear"`
	UniqueLeaders       int             `json:"uniqueLeaders"`
	FutureCount         int             `json:"futureCount"`
	FutureWithoutLeader []ScheduleEntry `json:"futureWithoutLeader"`
}

// RemoteProperty décrit une propriété de la base distante.
type RemoteProperty struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// FieldStat résume un champ des entrées locales brutes.
type FieldStat struct {
	Name         string   `json:"name"`
	Count        int      `json:"count"`
	NonNullCount int      `json:"nonNullCount"`
	Types        []string `json:"types"`
	Examples     []any    `json:"examples"`
}

type FieldReport struct {
	Remote []RemoteProperty `json:"remote,omitempty"`
	Local  []FieldStat      `json:"local"`

	// RemoteError est renseigné si la base distante n'a pas pu être décrite.
	RemoteError string `json:"remoteError,omitempty"`
}
