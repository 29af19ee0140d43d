package pins

import "encoding/json"

// snapshotPayload is the persisted slice of store state. Selection and the
// undo buffer are deliberately excluded; they reset at process start.
type snapshotPayload struct {
	PinRecords    map[string]PinRecord    `json:"pinRecords"`
	CustomPersons map[string]CustomPerson `json:"customPersons"`
	CustomEvents  []CustomEvent           `json:"customEvents"`
}

func (p snapshotPayload) encode() ([]byte, error) {
	return json.Marshal(p)
}

// decodeSnapshot parses a persisted blob. Callers treat any error as "start
// empty"; a corrupt snapshot must never prevent the store from loading.
func decodeSnapshot(blob []byte) (snapshotPayload, error) {
	var payload snapshotPayload
	if err := json.Unmarshal(blob, &payload); err != nil {
		return snapshotPayload{}, err
	}
	if payload.PinRecords == nil {
		payload.PinRecords = make(map[string]PinRecord)
	}
	if payload.CustomPersons == nil {
		payload.CustomPersons = make(map[string]CustomPerson)
	}
	return payload, nil
}
