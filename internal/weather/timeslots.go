package weather

// slotHours maps each named day-part to the hours of day it covers.
// Together the four slots cover all 24 hours exactly once.
var slotHours = map[string][]int{
	"morning":   {7, 8, 9, 10, 11},
	"afternoon": {12, 13, 14, 15, 16, 17},
	"evening":   {18, 19, 20, 21},
	"night":     {22, 23, 0, 1, 2, 3, 4, 5, 6},
}

// ResolveHours expands named day-parts into the set of hours they cover.
// Unknown slot names contribute nothing; duplicate slots are idempotent.
// An empty result means "no hour filtering" downstream.
func ResolveHours(slots []string) map[int]struct{} {
	hours := make(map[int]struct{})
	for _, slot := range slots {
		for _, h := range slotHours[slot] {
			hours[h] = struct{}{}
		}
	}
	return hours
}
