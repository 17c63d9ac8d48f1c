// Package services implements the driving ports.
//
// GenerationService runs the strategy chain that turns history into rounds,
// HistoryService shrinks and stores uploads, GameService owns cases and
// SettingsService reads and writes configuration. Services only talk to
// infrastructure through driven ports.
package services
