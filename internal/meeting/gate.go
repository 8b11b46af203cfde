package meeting

import "huddle-backend/internal/models"

// Caller is the authenticated identity behind a request. A nil *Caller is a guest.
type Caller struct {
	UserID string
	Email  string
}

// ID returns the caller's user ID, or "" for guests
func (c *Caller) ID() string {
	if c == nil {
		return ""
	}
	return c.UserID
}

// CanMutateMeeting reports whether caller may update or delete m. Only the host can.
func CanMutateMeeting(caller *Caller, m *models.Meeting) bool {
	return caller.ID() != "" && m != nil && caller.ID() == m.HostID
}

// ResolveRole picks the role of a joining caller. An explicit request wins; otherwise
// the host gets HOST and everyone else GUEST. PARTICIPANT is only reachable on request.
func ResolveRole(caller *Caller, m *models.Meeting, requested *models.ParticipantRole) models.ParticipantRole {
	if requested != nil {
		return *requested
	}
	if CanMutateMeeting(caller, m) {
		return models.RoleHost
	}
	return models.RoleGuest
}

// isHostParticipant reports whether p's leave ends m
func isHostParticipant(p *models.Participant, m *models.Meeting) bool {
	if p.Role == models.RoleHost {
		return true
	}
	return p.UserID != nil && *p.UserID == m.HostID
}
