package sponsor

import (
	"fmt"
	"regexp"
	"strconv"
)

// abortMessages maps the certificate package's Move abort codes to text a
// caller can show. Codes mirror the on-chain module's error constants.
var abortMessages = map[uint64]string{
	1: "template not found",
	2: "not authorized to mint",
	3: "certificate already issued for this recipient",
	4: "template is not active",
	5: "recipient address mismatch",
	6: "registry is frozen",
	7: "template supply exhausted",
}

// TranslateAbort maps an abort code to a human-readable message, with a
// generic fallback naming the code.
func TranslateAbort(code uint64) string {
	if msg, ok := abortMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("chain rejected the operation (code %d)", code)
}

// Status strings look like:
//
//	MoveAbort(MoveLocation { module: ..., function: 3, instruction: 22 }, 2) in command 0
var moveAbortRe = regexp.MustCompile(`MoveAbort\(.*?,\s*(\d+)\)`)

// ExtractAbortCode pulls the abort code out of a failure status string.
func ExtractAbortCode(status string) (uint64, bool) {
	m := moveAbortRe.FindStringSubmatch(status)
	if m == nil {
		return 0, false
	}
	code, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return code, true
}
