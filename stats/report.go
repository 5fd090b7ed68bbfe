package stats

// Tags of the reporting protocol. A report travels as a two element tuple
// (tag, value) sent raw to the parent, bypassing the logical clock and the
// fault injector.
const (
	TagUserTime   = "totalusrtime"
	TagSystemTime = "totalsystime"
	TagWallTime   = "totaltime"
	TagSent       = "sent"
	TagMemory     = "mem"
)

// Report builds the wire form of one reporting tuple.
func Report(tag string, value float64) []interface{} {
	return []interface{}{tag, value}
}

// Parse recognizes a reporting tuple in a received payload. It accepts both
// native tuples and their JSON decoded form, where numbers arrive as
// float64.
func Parse(payload interface{}) (tag string, value float64, ok bool) {
	items, isSlice := payload.([]interface{})
	if !isSlice || len(items) != 2 {
		return "", 0, false
	}
	tag, isString := items[0].(string)
	if !isString || !knownTag(tag) {
		return "", 0, false
	}
	value, isNumber := asFloat(items[1])
	if !isNumber {
		return "", 0, false
	}
	return tag, value, true
}

// MemoryKB returns the peak resident memory of this OS process in kilobytes.
func MemoryKB() float64 {
	return maxRSSKB()
}

func knownTag(tag string) bool {
	switch tag {
	case TagUserTime, TagSystemTime, TagWallTime, TagSent, TagMemory:
		return true
	}
	return false
}

func asFloat(value interface{}) (float64, bool) {
	switch actual := value.(type) {
	case float64:
		return actual, true
	case float32:
		return float64(actual), true
	case int:
		return float64(actual), true
	case int32:
		return float64(actual), true
	case int64:
		return float64(actual), true
	case uint:
		return float64(actual), true
	case uint32:
		return float64(actual), true
	case uint64:
		return float64(actual), true
	}
	return 0, false
}
