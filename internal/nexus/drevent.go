package nexus

// DrEvent is a dynamic reconfiguration event broadcast to every
// reactor's channel when a nexus's child set changes.
type DrEvent int

const (
	ChildOffline DrEvent = iota
	ChildFault
	ChildRemove
	ChildRebuild
)

func (e DrEvent) String() string {
	switch e {
	case ChildOffline:
		return "child_offline"
	case ChildFault:
		return "child_fault"
	case ChildRemove:
		return "child_remove"
	case ChildRebuild:
		return "child_rebuild"
	default:
		return "unknown_dr_event"
	}
}

// Handle dispatches a dynamic reconfiguration event against this
// channel. Must run from the channel's owning core's reactor context,
// the same discipline NewChannel and Refresh enforce.
func (ch *Channel) Handle(ev DrEvent, deviceName string) {
	switch ev {
	case ChildOffline:
		ch.Refresh()
	case ChildFault:
		ch.FaultDevice(deviceName)
		ch.Refresh()
	case ChildRemove:
		ch.RemoveDevice(deviceName)
	case ChildRebuild:
		ch.Refresh()
	}
}
