package model

import "encoding/json"

// UnknownCustomerLabel is logged when a payload carries no readable
// customer name.
const UnknownCustomerLabel = "unknown"

// installBasePayload mirrors just enough of the catalog response to pull a
// display name out of it: {"rows":[{"CS_CUSTOMER_NAME":"..."}]}.
type installBasePayload struct {
	Rows []struct {
		CSCustomerName string `json:"CS_CUSTOMER_NAME"`
	} `json:"rows"`
}

// CustomerLabel extracts the customer display name from a raw install-base
// payload, best effort. Unparsable payloads and missing fields yield
// UnknownCustomerLabel; this never fails.
func CustomerLabel(payload []byte) string {
	var p installBasePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return UnknownCustomerLabel
	}
	if len(p.Rows) == 0 || p.Rows[0].CSCustomerName == "" {
		return UnknownCustomerLabel
	}

	return p.Rows[0].CSCustomerName
}
