package flat

import (
	"sort"
	"time"
)

// attendance returns the closed interval length of r in milliseconds.
// Open records (still in the room) count up to now.
func attendance(r UserInOutRecord, nowMs int64) int64 {
	leave := r.LeaveTime
	if leave == 0 {
		leave = nowMs
	}
	if leave <= r.JoinTime {
		return 0
	}
	return leave - r.JoinTime
}

// TotalMinutes sums attendance of all records, rounded down to whole minutes.
func TotalMinutes(records []UserInOutRecord, now time.Time) int {
	var total int64
	nowMs := now.UnixMilli()
	for _, r := range records {
		total += attendance(r, nowMs)
	}
	return int(total / int64(time.Minute/time.Millisecond))
}

// MinutesByUser sums attendance per user UUID.
func MinutesByUser(records []UserInOutRecord, now time.Time) map[string]int {
	byUser := make(map[string]int64)
	nowMs := now.UnixMilli()
	for _, r := range records {
		byUser[r.UserUUID] += attendance(r, nowMs)
	}

	out := make(map[string]int, len(byUser))
	for user, ms := range byUser {
		out[user] = int(ms / int64(time.Minute/time.Millisecond))
	}
	return out
}

// JoinsByHour counts joins per hour of day in loc (UTC when nil).
func JoinsByHour(records []UserInOutRecord, loc *time.Location) [24]int {
	if loc == nil {
		loc = time.UTC
	}
	var hours [24]int
	for _, r := range records {
		if r.JoinTime == 0 {
			continue
		}
		hours[time.UnixMilli(r.JoinTime).In(loc).Hour()]++
	}
	return hours
}

// RoomDurationMinutes is the scheduled length of a room.
func RoomDurationMinutes(info *RoomInfo) int {
	if info == nil || info.EndTime <= info.BeginTime {
		return 0
	}
	return int((info.EndTime - info.BeginTime) / int64(time.Minute/time.Millisecond))
}

// SortRoomsByBegin orders rooms by begin time, newest first.
func SortRoomsByBegin(rooms []RoomItem) {
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].BeginTime > rooms[j].BeginTime
	})
}
