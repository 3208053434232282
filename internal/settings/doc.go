// Package settings stores user preferences such as the default directory
// and the result grid density.
//
// Preferences are read through a Store so that callers receive the settings
// service explicitly. SQLiteStore persists to a file in the settings
// directory; MemoryStore is used when persistence is unavailable and in tests.
package settings
