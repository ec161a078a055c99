// Package tokens estimates token counts and allocates prompt budgets for
// small local models.
//
// Local models served through Ollama have tight context windows compared to
// hosted APIs, so prompt assembly has to budget explicitly: a 4k-window
// model cannot take three whole source files. Counting is estimation only
// (roughly 4 characters per token); exact tokenizer parity is not needed
// because budgets are applied with headroom.
//
//	budget := tokens.ForModel("phi3:mini")
//	if !budget.FitsContext(snapshot) {
//	    // truncate before assembling the prompt
//	}
package tokens
