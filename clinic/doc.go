// Package clinic defines the persistent clinic entities: patients, doctors
// with their specialties, bookable availability slots and appointments. The
// types here are plain records owned by the store; behavior lives in the
// store and tool layers.
package clinic
