package models

// Infraction is the rule a penalty, warning or foul was given for.
type Infraction string

const (
	InfractionUnknown                  Infraction = "UNKNOWN"
	InfractionStickInfringement        Infraction = "STICK_INFRINGEMENT"
	InfractionIllegalAdvancement       Infraction = "ILLEGAL_ADVANCEMENT"
	InfractionIllegalSubstitution      Infraction = "ILLEGAL_SUBSTITUTION"
	InfractionIllegallyStoppingThePuck Infraction = "ILLEGALLY_STOPPING_THE_PUCK"
	InfractionOutOfBounds              Infraction = "OUT_OF_BOUNDS"
	InfractionGrabbingTheBarrier       Infraction = "GRABBING_THE_BARRIER"
	InfractionObstruction              Infraction = "OBSTRUCTION"
	InfractionDelayOfGame              Infraction = "DELAY_OF_GAME"
	InfractionUnsportsmanlikeConduct   Infraction = "UNSPORTSMANLIKE_CONDUCT"
	InfractionFreeArm                  Infraction = "FREE_ARM"
	InfractionFalseStart               Infraction = "FALSE_START"
)

var infractionNames = map[Infraction]string{
	InfractionUnknown:                  "Unknown",
	InfractionStickInfringement:        "Stick Infringement",
	InfractionIllegalAdvancement:       "Illegal Advancement",
	InfractionIllegalSubstitution:      "Illegal Substitution",
	InfractionIllegallyStoppingThePuck: "Illegally Stopping the Puck",
	InfractionOutOfBounds:              "Out of Bounds",
	InfractionGrabbingTheBarrier:       "Grabbing the Barrier",
	InfractionObstruction:              "Obstruction",
	InfractionDelayOfGame:              "Delay of Game",
	InfractionUnsportsmanlikeConduct:   "Unsportsmanlike Conduct",
	InfractionFreeArm:                  "Free Arm",
	InfractionFalseStart:               "False Start",
}

func (i Infraction) String() string {
	if name, ok := infractionNames[i]; ok {
		return name
	}
	return string(i)
}

// Valid reports whether i is a known infraction.
func (i Infraction) Valid() bool {
	_, ok := infractionNames[i]
	return ok
}
