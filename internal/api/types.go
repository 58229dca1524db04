package api

type CountRequest struct {
	Text string `json:"text"`
	// Preprocess is one of none, normalize or html. Cleaner runs are batch only.
	Preprocess  string   `json:"preprocess,omitempty"`
	UseLemma    *bool    `json:"use_lemma,omitempty"`
	UPOSTargets []string `json:"upos_targets,omitempty"`
	ChunkChars  int      `json:"chunk_chars,omitempty"`
	Top         int      `json:"top,omitempty"`
}

type FrequencyEntry struct {
	Word      string `json:"word"`
	Frequency int    `json:"frequency"`
}

type CountResponse struct {
	Unique  int              `json:"unique"`
	Tokens  int              `json:"tokens"`
	Chunks  int              `json:"chunks"`
	Nouns   []FrequencyEntry `json:"nouns"`
	RefTags []FrequencyEntry `json:"ref_tags,omitempty"`
}

type SentencesRequest struct {
	Text string `json:"text"`
}

type SentencesResponse struct {
	Sentences []string `json:"sentences"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Annotator string `json:"annotator,omitempty"`
}
