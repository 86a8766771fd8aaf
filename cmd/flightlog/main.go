package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stdout)
		return
	}
	var err error
	switch os.Args[1] {
	case "summary":
		err = summaryCmd(os.Args[2:], os.Stdout)
	case "export":
		err = exportCmd(os.Args[2:], os.Stdout)
	case "types":
		err = typesCmd(os.Args[2:], os.Stdout)
	case "report":
		err = reportCmd(os.Args[2:], os.Stdout)
	case "version":
		fmt.Printf("flightlog %s (built %s)\n", version, buildDate)
	default:
		usage(os.Stdout)
		os.Exit(2)
	}
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `flightlog %s (built %s) <command> [options]

Commands:
  summary  --in <log.bin> [--config <flightlog.yaml>] [--json <summary.json>] [--diagnostics <skips.jsonl>] [--metrics] [--progress] [-v]
  export   --in <log.bin> [--config <flightlog.yaml>] [--out-dir <dir>] [--format csv|sqlite] [--sqlite <file.db>] [--manifest] [--json <summary.json>]
  types    --in <log.bin>
  report   --summary <summary.json> --pdf <report.pdf> [--lang en|tr]
  version
`, version, buildDate)
}
