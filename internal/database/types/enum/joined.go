package enum

// JoinedVia represents how a member entered the group.
//
//go:generate go tool enumer -type=JoinedVia -trimprefix=JoinedVia -linecomment
type JoinedVia int

const (
	JoinedViaSelf          JoinedVia = iota // self
	JoinedViaAddedByOther                   // added_by_other
	JoinedViaGrandfathered                  // grandfathered
)
