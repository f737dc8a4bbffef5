package oracle

// Prompt templates for the five oracle call sites. Each asks for a strict
// JSON object so responses survive the tolerant decoder; the decoder still
// strips markdown fences for providers that insist on them.
const (
	boundaryPrompt = `You segment browsing activity into coherent sessions.
Given two consecutive analyzed pages, decide whether the second page starts a NEW session or continues the SAME one.
Consider topic continuity, task intent, and site relationships.

Return strict JSON: {"decision":"NEW"|"SAME","reason":"...","confidence":0.0-1.0}

Previous page:
%s

Current page:
%s`

	themePrompt = `You name recurring browsing workflows.
Given the ordered steps of a workflow a user repeats, name it in 3 to 5 words.
Be specific about what the workflow accomplishes, not generic.

Return strict JSON: {"theme":"..."}

Steps:
%s`

	topicPrompt = `You summarize sustained research interests.
The user has browsed the category %q across %d sessions. Given the page content below,
state their research goal in one sentence and list up to 3 notable observations.

Return strict JSON: {"summary":"...","insights":["...","...","..."]}

Pages:
%s`

	completionPrompt = `You judge whether a browsing session's task was completed.
Given the session below, infer the user's intent, what progress they made, why they may have stopped,
and a completion score between 0 (barely started) and 1 (clearly finished).
Suggest concrete next steps only if the task looks unfinished.

Return strict JSON: {"intent":"...","progress":"...","reason":"...","completionScore":0.0-1.0,"suggestions":["..."]}

Session:
%s`

	relatednessPrompt = `You decide whether a new browsing session continues a previously abandoned task.

Abandoned task intent:
%s

New session:
%s

Return strict JSON: {"related":true|false,"confidence":0.0-1.0}`
)
