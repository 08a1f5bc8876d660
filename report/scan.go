package report

import "log"

// Scan runs every parser over the artifact directory and folds the results
// into one Summary.  Missing or empty artifacts contribute zeros; a parser
// choking on garbage is logged and likewise contributes zeros.  Scan never
// fails: an empty directory is a legitimate, if sad, pipeline state.
func Scan(dir string, logger *log.Logger) Summary {
	var sum Summary

	for _, p := range Parsers() {
		raw := safeRead(dir, p.Filename())
		if len(raw) == 0 {
			logger.Printf("report: %s: no %s, counting zeros", p.Tool(), p.Filename())
			continue
		}

		if p.Filename() == PytestLog {
			sum.HavePytestLog = true
		}

		m, err := p.Parse(raw)
		if err != nil {
			logger.Printf("report: %s: %v", p.Tool(), err)
			continue
		}

		sum.add(m)
	}

	return sum
}
