package match

import "github.com/Seednode/royaleserver/internal/protocol"

// HandleLevelSelect implements "gsl" from spec.md §4.3: a catalog id
// selects a stock level, or inline levelData selects (and validates) a
// custom one. Either clears the other mode.
func (m *Match) HandleLevelSelect(actor *Player, levelID string, customData []byte) {
	m.do(func() {
		if !actor.IsDev {
			return
		}

		if len(customData) > 0 {
			if err := m.levels.ValidateCustom(customData); err != nil {
				actor.sender.SendJSON(protocol.GSLResult{Type: "gsl", Status: false, Message: err.Error()})
				return
			}
			m.CustomLevel = customData
			m.customLevelOn = true
			m.ForceLevelID = ""
			m.broadcast(protocol.GSLResult{Type: "gsl", Status: true}, 0)
			return
		}

		m.customLevelOn = false
		m.CustomLevel = nil
		m.ForceLevelID = levelID
		m.broadcast(protocol.GSLResult{Type: "gsl", Name: levelID, Status: true}, 0)
	})
}
