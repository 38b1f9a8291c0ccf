package analyzer

import "strconv"

// parsePortNumberLocal parses a transport port stored as a flow match
// string field. Flow match fields default to "0" when absent (§4.1),
// which parses fine and simply never matches a well-known port.
func parsePortNumberLocal(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
