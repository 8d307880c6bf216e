// Package roster reads the text exports the bidding system produces: the
// monthly crew roster and the PBS trips file. Both are regex-driven line
// formats recovered from PDF conversions, so the patterns tolerate loose
// whitespace.
package roster

import "regexp"

// rosterDataPattern splits a roster export into its month/year banner,
// the crew header and the day-by-day body. The header ends at the DH
// total; the body starts after the column-title row.
var rosterDataPattern = regexp.MustCompile(
	`(?is)(?P<month>\w{3,10})\s+(?P<year>\d{4})\s+(?P<header>.+)DH:\s+(?P<dh>\d{1,2}:\d{1,2}).+DAY.+?DH\s+(?P<body>.*)`)

// crewStatsPattern reads the crew-member line of the header:
// id, line name, position, group, base, line number, seniority, zone.
var crewStatsPattern = regexp.MustCompile(
	`(?i)(?P<id>\d{6})\s+(?P<name>\w{1,12}|\w{1,11}\s\w{1,11})\s+(?P<pos>[A-Z]{3})\s+(?P<group>\w{4})\s+(?P<base>[A-Z]{3})\s+\d\s+(?P<seniority>\d{1,4})\s+Time\sZone:(?P<tz>\w)`)

// carryInPattern reads the first day number of the body. A first day
// greater than 01 means the month opens mid-sequence.
var carryInPattern = regexp.MustCompile(
	`(?P<day>\d{2})(?:\s|-)(?P<endDay>\w{2})\s+`)

// groundDutyPattern matches reserve/standby/marker rows, e.g. "07-08 R1".
var groundDutyPattern = regexp.MustCompile(
	`(?s)(?P<day>\d{2})-(?P<endDay>\d{2})\s+(?P<name>[A-Z]{1,2}|[A-Z]\d)\s+`)

// rosterTripPattern matches trip rows: day span, four-digit trip number
// and the leg itinerary run.
var rosterTripPattern = regexp.MustCompile(
	`(?is)(?P<day>\d{2})\s+(?P<endDay>[A-Z]{2})\s+(?P<name>\d{4})\s+(?P<flights>(?:\w{4,6}\s+\w{3}\s+\d{4}\s+\w{3}\s+\d{4}\s+)+)`)

// legPattern reads one leg out of a trip row's itinerary run,
// e.g. "AM0001 MEX 0300 JFK 0825" or "DH0403 JFK 0930 MEX 1455".
var legPattern = regexp.MustCompile(
	`(?P<name>\w{4,6})\s(?P<origin>[A-Z]{3})\s(?P<begin>\d{4})\s(?P<destination>[A-Z]{3})\s(?P<end>\d{4})`)

// pageNumberPattern matches the "=====123=====" separators the PDF
// converter injects into trips files.
var pageNumberPattern = regexp.MustCompile(`=+\d+=+`)

// tripsTotalPattern reads the declared trip count of a PBS file.
var tripsTotalPattern = regexp.MustCompile(
	`(?i)total\s+(?:number\s+of\s+)?trips\s*:?\s*(?P<total>\d+)`)

// tripHeaderPattern opens one trip block in a PBS trips file.
var tripHeaderPattern = regexp.MustCompile(
	`(?i)TRIP\s+(?P<number>\d{4})\s+CHECK-?IN\s+(?P<dated>\d{2}[A-Za-z]{3}\d{4})\s+(?P<checkin>\d{1,2}:\d{2})\s+POSITION\s+(?P<position>[A-Z]{3})\s+BASE\s+(?P<base>[A-Z]{3})\s+TAFB\s+(?P<tafb>\d{1,3}:\d{2})`)

// tripLegPattern reads one leg line inside a trip block, with its
// equipment, block and turn times.
var tripLegPattern = regexp.MustCompile(
	`(?i)(?P<name>\w{4,6})\s+(?P<origin>[A-Z]{3})\s+(?P<begin>\d{4})\s+(?P<destination>[A-Z]{3})\s+(?P<end>\d{4})\s+(?P<equipment>\w{3})\s+BLK\s+(?P<blk>\d{4})\s+TURN\s+(?P<turn>\d{4})`)

// dutyDayClosePattern ends a duty day inside a trip block, carrying the
// declared totals.
var dutyDayClosePattern = regexp.MustCompile(
	`(?i)CRD\s+(?P<crd>\d{4})\s+DY\s+(?P<dy>\d{4})\s+LAYOVER\s+(?P<layover>\d{4})`)

// groups maps a pattern's named submatches for one match slice.
func groups(re *regexp.Regexp, match []string) map[string]string {
	out := make(map[string]string, len(match))
	for i, name := range re.SubexpNames() {
		if name != "" && i < len(match) {
			out[name] = match[i]
		}
	}
	return out
}
