package dto

// RoomMinutes - суммарные минуты участников в одной комнате
type RoomMinutes struct {
	RoomUUID string `json:"roomUUID"`
	Title    string `json:"title"`
	Minutes  int    `json:"minutes"`
}

type AnalyticsSummary struct {
	TotalRooms    int            `json:"totalRooms"`
	TotalMinutes  int            `json:"totalMinutes"`
	Rooms         []RoomMinutes  `json:"rooms"`
	MinutesByUser map[string]int `json:"minutesByUser"`
	JoinsByHour   [24]int        `json:"joinsByHour"`
}
