package consumers

type Event struct {
	Type string `json:"type"`
	*ReportSent
}

type ReportSent struct {
	ReportId   string `json:"reportId"`
	ChildId    string `json:"childId"`
	Date       string `json:"date"`
	DaycareId  string `json:"daycareId"`
	LocationId string `json:"locationId"`
}
