// Package swim holds the swim-meet data model and the conversions shared by the
// ingestion and presentation pipelines.
//
// Race times arrive as display strings ("28.41", "1:05.32", "1:02:14.50") or as
// the sentinels DQ and NS. ParseTime turns them into seconds, FormatSeconds turns
// seconds back into the display form, and AbbreviateEvent shortens event names
// such as "100 Yd Backstroke" to "100 Y Back".
package swim
