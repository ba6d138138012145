package battle

import "errors"

var (
	// ErrNoTroops is returned when a battalion would be spawned without troops.
	ErrNoTroops = errors.New("battalion has no troops")
	// ErrDuplicateID is returned when a spawn id is already in use.
	ErrDuplicateID = errors.New("duplicate battalion id")
	// ErrUnknownUnitType is returned for unit types outside Warrior/Archer.
	ErrUnknownUnitType = errors.New("unknown unit type")
)
