package weather

var daypartBuckets = []struct {
	key      DaypartKey
	from, to int
}{
	{Night, 0, 5},
	{Morning, 6, 11},
	{Afternoon, 12, 17},
	{Evening, 18, 23},
}

// SummarizeDayparts folds hourly samples into the four fixed buckets, always
// in night, morning, afternoon, evening order. Empty buckets carry only their
// key and hour range.
func SummarizeDayparts(hours []Hour) []Daypart {
	out := make([]Daypart, 0, len(daypartBuckets))

	for _, b := range daypartBuckets {
		dp := Daypart{Key: b.key, From: b.from, To: b.to}
		var codes []int

		for _, h := range hours {
			if h.Hour < b.from || h.Hour > b.to {
				continue
			}
			if h.Temp != nil {
				dp.TempMin = minPtr(dp.TempMin, *h.Temp)
				dp.TempMax = maxPtr(dp.TempMax, *h.Temp)
			}
			if h.PrecipProbability != nil {
				dp.PrecipProbability = maxPtr(dp.PrecipProbability, *h.PrecipProbability)
			}
			if h.ConditionCode != nil {
				codes = append(codes, *h.ConditionCode)
			}
		}

		dp.ConditionCode = dominantCode(codes)
		out = append(out, dp)
	}

	return out
}

// dominantCode returns the most frequent code; ties go to the code seen first.
func dominantCode(codes []int) *int {
	if len(codes) == 0 {
		return nil
	}

	counts := make(map[int]int, len(codes))
	for _, c := range codes {
		counts[c]++
	}

	best, bestN := codes[0], 0
	for _, c := range codes {
		if n := counts[c]; n > bestN {
			best, bestN = c, n
		}
	}
	return &best
}

func minPtr(cur *float64, v float64) *float64 {
	if cur == nil || v < *cur {
		return &v
	}
	return cur
}

func maxPtr(cur *float64, v float64) *float64 {
	if cur == nil || v > *cur {
		return &v
	}
	return cur
}
