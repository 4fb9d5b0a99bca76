// Package encoder turns video document text into dense vector embeddings.
//
// Three providers are supported behind the Encoder interface: the OpenAI
// and Jina embedding APIs, and an offline bag-of-words encoder for
// development and tests. Provider selection happens through New with an
// explicit Config or through NewFromEnv:
//
//  1. If VUEON_ENCODER_PROVIDER is set → use the named provider
//  2. Else if OPENAI_API_KEY is set → OpenAI
//  3. Else if JINA_API_KEY is set → Jina
//  4. Else → local provider (offline mode, 384 dimensions)
//
// API calls retry with exponential backoff and stop early on context
// cancellation; callers bound the total encode time with a context
// deadline. Successful vectors are cached in an LRU cache keyed by the
// SHA-256 of the text, so re-encoding an unchanged document is free.
//
// All provider failures wrap types.ErrEncoding so callers can classify
// them without knowing which provider was active.
package encoder
