package sandbox

import (
	"reflect"

	"tankforge/internal/tankapi"
)

// Symbols returns the complete set of symbols reachable from interpreted
// scripts: the capability facade types and the sensor constraint constants,
// nothing else. No stdlib packages are ever loaded into the interpreter, so
// a script's world ends at the facade.
func Symbols() map[string]map[string]reflect.Value {
	return map[string]map[string]reflect.Value{
		"tankforge/internal/tankapi/tankapi": {
			"Tank":         reflect.ValueOf((*tankapi.Tank)(nil)),
			"EnemyInfo":    reflect.ValueOf((*tankapi.EnemyInfo)(nil)),
			"SensorConfig": reflect.ValueOf((*tankapi.SensorConfig)(nil)),

			"MinSensors":     reflect.ValueOf(tankapi.MinSensors),
			"MaxSensors":     reflect.ValueOf(tankapi.MaxSensors),
			"MinSensorArc":   reflect.ValueOf(tankapi.MinSensorArc),
			"MaxSensorArc":   reflect.ValueOf(tankapi.MaxSensorArc),
			"MinSensorRange": reflect.ValueOf(tankapi.MinSensorRange),
			"MaxSensorRange": reflect.ValueOf(tankapi.MaxSensorRange),
		},
	}
}
