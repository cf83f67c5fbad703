package game

type Team uint8

const (
	Red Team = iota
	Blue
)

const teamCount = 2

func (t Team) Valid() bool { return t < teamCount }

func (t Team) Opponent() Team {
	if t == Red {
		return Blue
	}
	return Red
}

func (t Team) String() string {
	switch t {
	case Red:
		return "red"
	case Blue:
		return "blue"
	}
	return "unknown"
}

// Status is the lifecycle state of a character.
type Status uint8

const (
	StatusNormal Status = iota
	StatusDead
	StatusImmune
	StatusOffscreen
)

func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusDead:
		return "dead"
	case StatusImmune:
		return "immune"
	case StatusOffscreen:
		return "offscreen"
	}
	return "unknown"
}
