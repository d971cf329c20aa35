package cron

import "testing"

func FuzzCronSchedule(f *testing.F) {
	f.Add("*/5 * * * *")
	f.Add("0 0 * * *")
	f.Add("@hourly")
	f.Add("@every 90s")
	f.Add("@every")
	f.Add("invalid")
	f.Add("")
	f.Add("60 * * * *")

	f.Fuzz(func(_ *testing.T, expr string) {
		// Must not panic; errors are expected and acceptable.
		_, _ = Parser.Parse(expr)
	})
}
