package annotate

import _ "embed"

//go:embed scripts/stanza_annotator.py
var embeddedStanzaScript string

//go:embed scripts/requirements.txt
var embeddedRequirements string

const defaultRequirements = `stanza>=1.8.0
torch>=2.0.0`
