package emit

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/framectl/internal/schema"
)

// Generate renders the send and receive units for one schema into outDir.
// The two sides may target different languages; a failure on one side is
// collected and does not abort the other.
func Generate(s *schema.FrameSchema, sendLang, recvLang, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	var errs *multierror.Error
	for _, job := range []struct {
		lang string
		side Side
	}{
		{sendLang, SideSend},
		{recvLang, SideRecv},
	} {
		if err := writeUnit(s, job.lang, job.side, outDir); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

func writeUnit(s *schema.FrameSchema, lang string, side Side, outDir string) error {
	em, err := ForLanguage(lang)
	if err != nil {
		return &GenerationError{Language: lang, Side: side, Err: err}
	}
	src, err := em.Emit(s)
	if err != nil {
		return &GenerationError{Language: lang, Side: side, Err: err}
	}
	path := filepath.Join(outDir, em.FileName(s, side))
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		return &GenerationError{Language: lang, Side: side, Err: err}
	}
	log.Info().
		Str("schema", s.Name).
		Str("language", em.Language()).
		Str("side", string(side)).
		Str("path", path).
		Msg("wrote generated unit")
	return nil
}
