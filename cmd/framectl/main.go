package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/framectl/internal/emit"
	"github.com/danmuck/framectl/internal/logging"
	"github.com/danmuck/framectl/internal/schema"
)

func main() {
	lang := flag.String("lang", "", "target language for both sides: c|cpp|python")
	sendLang := flag.String("send-lang", "", "target language for the send side (overrides -lang)")
	recvLang := flag.String("recv-lang", "", "target language for the receive side (overrides -lang)")
	out := flag.String("out", "generated", "output directory for generated sources")
	validate := flag.Bool("validate", false, "validate the schema and exit")
	flag.Usage = usage
	flag.Parse()

	logging.ConfigureRuntime()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	s, err := schema.Load(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("schema load failed")
		os.Exit(1)
	}

	if *validate {
		log.Info().Str("schema", s.Name).Str("path", path).Msg("schema valid")
		return
	}

	send, recv := *sendLang, *recvLang
	if send == "" {
		send = *lang
	}
	if recv == "" {
		recv = *lang
	}
	if send == "" || recv == "" {
		log.Error().Msg("no target language: pass -lang, or both -send-lang and -recv-lang")
		os.Exit(2)
	}

	if err := emit.Generate(s, send, recv, *out); err != nil {
		log.Error().Err(err).Str("schema", s.Name).Msg("generation failed")
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: framectl [flags] <schema-file>

Generates paired send/recv frame codecs from a schema definition
(JSON or TOML). Supported target languages: %v.

`, emit.Languages())
	flag.PrintDefaults()
}
