package prompt

import (
	"fmt"
	"strings"
)

// Build returns the system and user message for a prompt variant.
func Build(variant Variant, params Params) (system string, user string, err error) {
	switch variant {
	case VariantQuery:
		return buildQuery(params)
	case VariantReformulateQuery:
		return buildReformulateQuery(params)
	case VariantExtractTimeTokens:
		return buildExtractTimeTokens(params)
	case VariantChunkSummary:
		return buildChunkSummary(params)
	case VariantTranscriptChunkSummary:
		return buildTranscriptChunkSummary(params)
	case VariantTranscriptGrandSummary:
		return buildTranscriptGrandSummary(params)
	case VariantBriefing:
		return buildBriefing(params)
	case VariantQuestionSuggestions:
		return buildQuestionSuggestions(params)
	case VariantRecentTopics:
		return buildRecentTopics(params)
	case VariantTopicsInsights:
		return buildTopicsInsights(params)
	case VariantAttendanceInsights:
		return buildAttendanceInsights(params)
	case VariantSoapNote:
		return buildSoapNote(params)
	case VariantSessionMiniSummary:
		return buildSessionMiniSummary(params)
	case VariantGreeting:
		return buildGreeting(params)
	default:
		return "", "", fmt.Errorf("unknown prompt variant %q", variant)
	}
}

// genderClause renders ", who is a <gender>" only for genders with
// unambiguous pronouns; anything else is omitted from the prompt.
func genderClause(gender string) string {
	if gender == "male" || gender == "female" {
		return fmt.Sprintf(", who is a %s", gender)
	}
	return ""
}

func genderParenthetical(gender string) string {
	if gender == "male" || gender == "female" {
		return fmt.Sprintf(" (%s)", gender)
	}
	return ""
}

func contextBlock(context string) string {
	return fmt.Sprintf("We have provided context information below.\n---------------------\n%s\n---------------------\n", context)
}

func buildQuery(p Params) (string, string, error) {
	if err := p.require(map[string]string{
		"patient_name":  p.PatientName,
		"context":       p.Context,
		"language_code": p.LanguageCode,
		"query":         p.Query,
	}); err != nil {
		return "", "", err
	}

	var sys strings.Builder
	fmt.Fprintf(&sys,
		"A mental health practitioner is using our Practice Management Platform to inquire about a patient named %s%s. ",
		p.PatientName, genderClause(p.PatientGender))
	sys.WriteString(
		"The practitioner's session notes provide the available information. " +
			"Your task is to answer the practitioner's questions based on these notes. " +
			"Keep in mind that you should never attempt to diagnose the patient yourself. " +
			"The practitioner relies on your support for organization and information retrieval, not for making clinical decisions. " +
			"If the practitioner asks about the patient's session history, focus on providing objective data analysis rather than offering diagnostic recommendations." +
			"\n\nInstructions:\n" +
			"1. Evaluate the provided context documents.\n" +
			"2. First, examine the `chunk_summary` to determine if the document is relevant to the question.\n" +
			"3. If relevant, use the `chunk_summary` to formulate your response.\n" +
			"4. If there exists a `pre_existing_history_summary`, and **only** if it is relevant to the question, use it to build on your response. " +
			"In that case, also mention the fact that you referenced the patient's pre-existing history. " +
			"Otherwise, if the pre-existing history is not related to the question, ignore it.\n" +
			"5. When referencing a `chunk_summary`, always mention the session date associated with the information context. Use format '%b %d, %Y' (i.e: Oct 12, 2023).\n" +
			"6. If no relevant session information is found, do not mention any dates.\n" +
			"7. If the question is about future sessions or planning, and no relevant session notes exist, freely provide guidance to assist the practitioner.\n" +
			"8. For questions directly related to the patient's session history, if the question cannot be answered based on the `chunk_summary` values, state that the information is not available in the session notes.\n" +
			"9. For casual or non-informative inputs from the user (e.g.: 'Got it', 'Ok'), offer a simple acknowledgment or a brief, polite response that does not reference session context unless directly relevant.\n")
	if p.ChatHistoryIncluded {
		sys.WriteString(
			"10. For coherence, consider the provided chat history to understand what the conversation has been so far. " +
				"The `chunk_summary` fields still take precedence when you're looking for information with which to answer the user question.\n")
	}
	if p.LastSessionDate != "" {
		fmt.Fprintf(&sys, "\nNote that %s's last session with the practitioner was on %s.", p.PatientName, p.LastSessionDate)
	}

	user := contextBlock(p.Context) +
		fmt.Sprintf("\nIt is very important that you craft your response using language code %s.\n", p.LanguageCode) +
		fmt.Sprintf("\nGiven this information, please respond the user's input: %s\n", p.Query)

	return sys.String(), user, nil
}

func buildReformulateQuery(p Params) (string, string, error) {
	if err := p.require(map[string]string{
		"chat_history": p.ChatHistory,
		"query":        p.Query,
	}); err != nil {
		return "", "", err
	}

	system := "Given the chat history and the latest user input, which may reference previous context, reformulate the input into a standalone entry " +
		"that can be understood without relying on the chat history. If the input is a question, do NOT provide an answer; only reformulate it if necessary, otherwise return it unchanged. " +
		"For casual or non-informative inputs from the user (e.g.: 'Got it', 'Ok'), it's ok to return them unchanged. " +
		"The output should be generated using the same language in which the user question is written."

	user := "Please review the following chat history and the most recent user input. " +
		"The user input might reference information from the chat history. " +
		"Your task is to reformulate the user input into a standalone entry that can be understood without the chat history. " +
		"If the input is a question, do NOT provide an answer; simply reformulate it if necessary, otherwise return it as is. " +
		"For casual or non-informative inputs from the user (e.g.: 'Got it', 'Ok'), it's ok to return them unchanged. " +
		"The output should be generated using the same language in which the latest user question is written." +
		fmt.Sprintf("\n---------------------\nChat History:\n%s\n---------------------\n", p.ChatHistory) +
		fmt.Sprintf("Latest User Input:\n%s\n---------------------\n", p.Query)

	return system, user, nil
}

func buildExtractTimeTokens(p Params) (string, string, error) {
	if err := p.require(map[string]string{
		"query": p.Query,
		"today": p.Today,
	}); err != nil {
		return "", "", err
	}

	system := "A mental health practitioner is using our Practice Management Platform to inquire about a patient. " +
		"They may ask questions about the patient or about their own notes. " +
		"Your task is to determine if there is a time range implied by the question, and if so, extract the time range.\n\n" +
		"Return a JSON object with two keys: `start_date` and `end_date`, each in YYYY-MM-DD format (e.g., 1991-10-24).\n" +
		"If no time range is implied, return null for both fields.\n\n" +
		"Example output:\n" +
		`{"start_date": "2024-04-04", "end_date": "2024-04-05"}` + "\n\n" +
		"Return only the JSON object and nothing else."

	user := fmt.Sprintf("The user asked: '%s'.\n", p.Query) +
		"If the question implies a time range, extract it as `start_date` and `end_date` using YYYY-MM-DD format.\n" +
		"If no time range is implied, return null for both.\n" +
		fmt.Sprintf("For reference, today's date is %s.\n", p.Today) +
		"Respond only with the JSON object."

	return system, user, nil
}

func buildChunkSummary(p Params) (string, string, error) {
	if err := p.require(map[string]string{"text": p.Text}); err != nil {
		return "", "", err
	}

	system := "A mental health practitioner is uploading session notes to our platform. " +
		"We use a Retrieval Augmented Generation system that involves chunking these notes. " +
		"Each chunk will be converted into embeddings and stored in a vector database. " +
		"Your task is to create a brief, informative summary of the chunk that will be provided. " +
		"This summary must be directly based on the content in the chunk, without any interpretation, rephrasing, or additional analysis. " +
		"It should only encapsulate the key information from the chunk for quick retrieval during searches. " +
		"Ensure the summary accurately reflects the content and context of the chunk, exactly as presented in the original notes. " +
		"Regardless of the original language, generate the summary in English."

	user := fmt.Sprintf("Summarize the following chunk:\n\n%s", p.Text)
	return system, user, nil
}

func buildTranscriptChunkSummary(p Params) (string, string, error) {
	if err := p.require(map[string]string{
		"text":          p.Text,
		"language_code": p.LanguageCode,
	}); err != nil {
		return "", "", err
	}

	system := "A mental health practitioner just met with a patient, and needs to summarize the content of the session. " +
		fmt.Sprintf("We have a transcription of the full session, and your task is to provide the summary using language code %s. ", p.LanguageCode) +
		"The summary must be based strictly on the content in the transcription and should not include any interpretation, rephrasing, or inferred insights beyond what is explicitly stated. " +
		"The summary should concisely convey the key topics discussed, the emotions expressed, and any significant moments or changes in the patient's mood or behavior, exactly as presented in the transcription. " +
		"Focus on the most relevant details that will help the therapist recall the session effectively."

	user := "Please provide a concise summary of the following session transcription. " +
		"The summary should capture the key topics discussed, emotions expressed, and significant moments or changes in the session." +
		fmt.Sprintf("\n\n-----------------\n\nTranscription:\n\n%s", p.Text)

	return system, user, nil
}

func buildTranscriptGrandSummary(p Params) (string, string, error) {
	if err := p.require(map[string]string{
		"text":          p.Text,
		"language_code": p.LanguageCode,
	}); err != nil {
		return "", "", err
	}

	system := "A mental health practitioner just met with a patient, and used our Practice Management Platform to listen to the session and generate a summary. " +
		"Due to the session's lengthy duration, we have chunked its transcription, summarized each chunk independently, and merged all chunks together. " +
		"The problem is that this merged version is bloated and has a lot of redundancy. " +
		"Your task is to reword this grand summary to avoid redundancy, and make it cleaner and pleasant to read. " +
		fmt.Sprintf("It is very important that this grand summary is written using language code %s.", p.LanguageCode)

	user := "Please clean up the following summary, which consists of a merged set of independent chunk summaries. " +
		fmt.Sprintf("\n\n-----------------\n\nTranscription:\n\n%s", p.Text)

	return system, user, nil
}

func buildBriefing(p Params) (string, string, error) {
	if err := p.require(map[string]string{
		"language_code":  p.LanguageCode,
		"therapist_name": p.TherapistName,
		"patient_name":   p.PatientName,
		"query":          p.Query,
	}); err != nil {
		return "", "", err
	}
	if p.SessionCount < 0 {
		return "", "", fmt.Errorf("invalid session_count param for building prompt")
	}

	var sys strings.Builder
	fmt.Fprintf(&sys,
		"A mental health practitioner, %s, is about to meet with %s%s, an existing patient. ",
		p.TherapistName, p.PatientName, genderParenthetical(p.PatientGender))
	fmt.Fprintf(&sys,
		"%s is using our Practice Management Platform to quickly refreshen on %s's session history. ",
		p.TherapistName, p.PatientName)
	fmt.Fprintf(&sys, "%s has had %d sessions with %s so far. ", p.TherapistName, p.SessionCount, p.PatientName)
	fmt.Fprintf(&sys,
		"The first thing you should do is say hi to %s, and remind them that they have had %d sessions with %s **since the patient was onboarded onto our platform** (this distinction is very important). ",
		p.TherapistName, p.SessionCount, p.PatientName)
	fmt.Fprintf(&sys,
		"\n\nOnce you've said hi to %s, your job is to provide a summary of %s's session history in two sections: **Most Recent Sessions** and **Historical Themes**. ",
		p.TherapistName, p.PatientName)
	sys.WriteString(
		"You should never attempt to diagnose the patient yourself. " +
			"The practitioner relies on your support for organization and information retrieval, not for making clinical decisions. Focus on providing objective data analysis rather than offering diagnostic recommendations.\n\n" +
			"• **Most Recent Sessions**: Base the summary strictly on the `chunk_summary` values you see as context. If you don't see any `chunk_summary` values, omit this section entirely without making up any details beyond what is explicitly available.\n" +
			"• **Historical Themes**: Use the `pre_existing_history_summary` as well as the `chunk_summary` values to determine a set of relevant, historical themes for the patient. " +
			"Use only information from the `pre_existing_history_summary` and `chunk_summary` values. Do not add nor make up any additional information. " +
			"If no `pre_existing_history_summary` value is available, attempt to identify historical themes from the available `chunk_summary` values. " +
			"However, if neither `pre_existing_history_summary` nor relevant `chunk_summary` values are available, omit this section entirely without adding or filling in any details beyond what's explicitly provided.\n\n" +
			"There are two specific scenarios to consider:\n\n")
	fmt.Fprintf(&sys,
		"1. **If both sections are omitted** due to lack of data, shift the focus to providing generic recommendations on how to approach the upcoming session with %s. "+
			"Offer strategies for guiding the conversation or establishing continuity from their previous meeting.\n\n", p.PatientName)
	fmt.Fprintf(&sys,
		"2. **If this is %s's first time meeting with %s**, omit both sections, and instead suggest strategies on how to establish a solid foundation for their relationship.\n\n",
		p.TherapistName, p.PatientName)
	sys.WriteString("For **'Most Recent Sessions'** list the most recent sessions sorted by the most recent first. Ensure date precision. ")
	fmt.Fprintf(&sys,
		"If %s has previously met with %s, conclude with **'Suggestions for Next Session'**, offering discussion topics for their session that's about to start. ",
		p.TherapistName, p.PatientName)
	sys.WriteString("All sections should have at most 4 bullet points. ")
	fmt.Fprintf(&sys, "It is very important that the summary is written using language code %s. ", p.LanguageCode)
	sys.WriteString("As a reference point, aim for a total length of 1,600–2,000 characters. However, it's preferable to exceed this range rather than omit available information from a section. ")
	fmt.Fprintf(&sys,
		"Ensure the headers for Most Recent Sessions, Historical Themes, and Suggestions for Next Session are bolded using appropriate mark-up, and that they also are written using language code %s.",
		p.LanguageCode)

	user := contextBlock(p.Context) +
		fmt.Sprintf("\nIt is very important that your output is written using language code %s. ", p.LanguageCode) +
		fmt.Sprintf("Given this information, please answer the practitioner's question:\n%s", p.Query)

	return sys.String(), user, nil
}

func patientReference(p Params) string {
	if p.PatientGender == "male" || p.PatientGender == "female" {
		return fmt.Sprintf("\nFor reference, the patient is a %s, and their name is %s.", p.PatientGender, p.PatientName)
	}
	return fmt.Sprintf("\nFor reference, the patient's name is %s.", p.PatientName)
}

func buildQuestionSuggestions(p Params) (string, string, error) {
	if err := p.require(map[string]string{
		"language_code": p.LanguageCode,
		"context":       p.Context,
		"patient_name":  p.PatientName,
		"query":         p.Query,
	}); err != nil {
		return "", "", err
	}

	system := "You are generating question suggestions for a mental health practitioner who is reviewing a patient's dashboard on our Practice Management Platform. " +
		"These questions will appear as clickable suggestions for the therapist, who may use them to query an AI assistant about the patient's session history. " +
		"The questions are not meant to be asked to the patient directly. Instead, they are intended to help the therapist reflect on or explore the patient's history using our AI assistant.\n\n" +
		"Your task is to generate exactly two specific, psychology-relevant questions that a therapist might ask *about the patient*, based only on the factual content found in the `chunk_summary` and `pre_existing_history_summary`.\n\n" +
		"Requirements:\n" +
		"- The questions must refer to the patient in third person (e.g., 'the patient', 'they'). Do not use 'you', 'your', or otherwise address the patient directly.\n" +
		"- Only include questions for which the answer is explicitly available or clearly inferable from the summaries. Do not include questions about topics that are not mentioned.\n" +
		"- Each question should help the therapist understand the patient's recent progress, key themes, or emotional concerns.\n" +
		fmt.Sprintf("- The questions must be written in language code %s.\n", p.LanguageCode) +
		"- Each question must be concise, under 60 characters.\n" +
		"- Avoid assumptions, clinical interpretations, or speculative reasoning.\n" +
		"- Return only a JSON object in the following format: {\"questions\": [\"...\", \"...\"]}\n"

	user := contextBlock(p.Context) +
		patientReference(p) +
		fmt.Sprintf(" It is very important that each question is written using language code %s, and that it remains under 60 characters of length. ", p.LanguageCode) +
		fmt.Sprintf("Given this information, please answer the practitioner's question:\n%s", p.Query)

	return system, user, nil
}

func buildRecentTopics(p Params) (string, string, error) {
	if err := p.require(map[string]string{
		"language_code": p.LanguageCode,
		"context":       p.Context,
		"patient_name":  p.PatientName,
		"query":         p.Query,
	}); err != nil {
		return "", "", err
	}

	system := "A mental health practitioner is viewing a patient's dashboard on our Practice Management Platform. " +
		"They need to know what topics the patient has been discussing the most during the most recent sessions.\n" +
		"\nProvide the following:\n\n" +
		"1. A set of up to three recent topics, each with its density percentage, totaling exactly 100%.\n" +
		"2. Each topic should be based directly on repeated patterns or themes from the session notes.\n" +
		"3. It is acceptable to group identical or highly similar phrases under a single representative topic label.\n" +
		"4. Do not invent new topics that are not reflected in the notes. Avoid broad generalizations.\n" +
		"5. Each topic label should be concise (23 characters or fewer).\n" +
		"6. Base the percentages on actual relative frequency across all notes. Do not artificially balance the percentages " +
		"— reflect actual repetition and emphasis in the session notes.\n" +
		"\nReturn only a JSON object with one key: `topics`. The value should be an array of topic objects. Each topic must include:\n" +
		fmt.Sprintf("- `topic`: the grouped topic label (language: %s)\n", p.LanguageCode) +
		"- `percentage`: a percentage string like \"60%\"\n" +
		"\nIf there are no session note summaries (found in the `chunk_summary` values), return an empty array.\n" +
		"\nExample:\n" +
		"{\n" +
		"  \"topics\": [\n" +
		"    {\"topic\": \"Graduation prep\", \"percentage\": \"50%\"},\n" +
		"    {\"topic\": \"Job search\", \"percentage\": \"30%\"},\n" +
		"    {\"topic\": \"Family conflict\", \"percentage\": \"20%\"}\n" +
		"  ]\n" +
		"}\n"

	user := contextBlock(p.Context) +
		patientReference(p) +
		fmt.Sprintf(" It is very important that each topic is written using language code %s, and that its length is 23 characters or less. ", p.LanguageCode) +
		fmt.Sprintf("Given this information, please answer the practitioner's question:\n%s", p.Query)

	return system, user, nil
}

func buildTopicsInsights(p Params) (string, string, error) {
	if err := p.require(map[string]string{
		"language_code": p.LanguageCode,
		"patient_name":  p.PatientName,
		"query":         p.Query,
	}); err != nil {
		return "", "", err
	}

	system := "You are a mental health assistant helping practitioners analyze their patients' session data. " +
		"You will receive an array of topics, each with a corresponding frequency percentage, indicating how often the patient has spoken about these topics in their most recent sessions. " +
		"Your task is to briefly analyze this information, strictly based on the provided data, and generate a concise paragraph that highlights any patterns, recurring themes, or notable insights. " +
		"Ensure that the analysis is objective, avoiding interpretation or assumptions that are not explicitly supported by the data. " +
		"Focus on rationalizing the data in a way that could assist the practitioner in understanding the patient's current focus or emotional state.\n" +
		"\nIt is very important that the output meets the following criteria:\n" +
		"1. Format the output as a single paragraph.\n" +
		"2. Limit the output to 270 characters.\n" +
		"3. Do not mention again each topic's frequency percentage (this is already highlighted to the user).\n" +
		fmt.Sprintf("4. Ensure the output is generated using language code %s.\n", p.LanguageCode)

	user := contextBlock(p.Context) +
		fmt.Sprintf("\nIt is very important that your output is written using language code %s. ", p.LanguageCode) +
		fmt.Sprintf("Note that the patient name is %s%s ", p.PatientName, genderParenthetical(p.PatientGender)+".") +
		fmt.Sprintf("Given this information, please answer the practitioner's question:\n%s", p.Query)

	return system, user, nil
}

func buildAttendanceInsights(p Params) (string, string, error) {
	if err := p.require(map[string]string{
		"language_code": p.LanguageCode,
		"patient_name":  p.PatientName,
	}); err != nil {
		return "", "", err
	}

	system := "You are a mental health assistant helping practitioners analyze their patients' attendance patterns. " +
		"You receive an array of dates (with format YYYY-MM-DD) representing the last N sessions a patient has had with their therapist. " +
		"Your task is to generate a brief, insightful paragraph that highlights trends or irregularities in the patient's attendance. " +
		"Consider factors such as consistency, gaps between sessions, and any changes in frequency over time. " +
		"Provide analytics that could help the therapist understand the patient's commitment, punctuality, or potential barriers to consistent attendance. " +
		"\n\nIt is very important that the output meets the following criteria:\n" +
		"1. Format the output as a single paragraph.\n" +
		"2. Limit the output to 290 characters.\n" +
		fmt.Sprintf("3. Ensure the output is generated using language code %s.\n", p.LanguageCode)

	user := "Given the following dates of sessions that a patient has had with their therapist, provide an analysis of the patient's attendance pattern. " +
		"Highlight any trends, consistency, or notable gaps in the sessions. " +
		"Offer insights that might help understand the patient's commitment to therapy or any potential issues with regular attendance. " +
		"If the set of dates is empty, return only a 50-character sentence stating that the patient is yet to start attending sessions. " +
		fmt.Sprintf("Note that the patient name is %s%s. ", p.PatientName, genderParenthetical(p.PatientGender)) +
		fmt.Sprintf("\n\nHere is the set of dates: [%s]", strings.Join(p.SessionDates, ", "))

	return system, user, nil
}

func buildSoapNote(p Params) (string, string, error) {
	if err := p.require(map[string]string{"text": p.Text}); err != nil {
		return "", "", err
	}

	system := "A mental health practitioner has uploaded session notes to our platform. " +
		"Your task is to convert these notes into the SOAP format, which consists of the following sections:\n\n" +
		"Subjective: What brought the patient to the practitioner, including their history and reasons for the visit.\n" +
		"Objective: Factual information collected during the session.\n" +
		"Assessment: The practitioner's professional analysis based on subjective and objective data. " +
		"Plan: The recommended actions or next steps from the practitioner or patient. " +
		"Organize the session notes under these headings. Paraphrase content if it enhances clarity or readability. " +
		"If any section lacks sufficient detail, leave it blank, but ensure no original information is omitted. " +
		"For any content that doesn't fit within the SOAP structure, include it at the end, after the SOAP sections.\n\n" +
		"Return the SOAP-formatted notes as a string with double line breaks between sections and single line breaks between each header and its content. " +
		"Write the section headers in English, bolded with appropriate mark-up, while keeping the content in the same language as the original notes."

	user := fmt.Sprintf("Adapt the following session notes into the SOAP format:\n\n%s.", p.Text)
	return system, user, nil
}

func buildSessionMiniSummary(p Params) (string, string, error) {
	if err := p.require(map[string]string{
		"text":          p.Text,
		"language_code": p.LanguageCode,
	}); err != nil {
		return "", "", err
	}

	system := "After a session with a patient, a mental health practitioner uploads their notes to our platform. " +
		"Each session entry in the Sessions table includes a 'mini summary' of no more than 50 characters. " +
		"Your task is to create this mini summary. " +
		"It should be directly extracted from the content in the session notes, without any interpretation, rephrasing, or additional analysis. " +
		"Ensure the summary conveys the core content of the session notes as clearly as possible. " +
		"If the content provided does not contain any meaningful information to summarize, simply return the raw session notes unchanged. " +
		fmt.Sprintf("It is very important that your output is generated using language code %s. ", p.LanguageCode)

	user := fmt.Sprintf("Summarize the following session notes:\n\n%s", p.Text)
	return system, user, nil
}

func buildGreeting(p Params) (string, string, error) {
	if err := p.require(map[string]string{
		"therapist_name": p.TherapistName,
		"language_code":  p.LanguageCode,
		"weekday":        p.Weekday,
	}); err != nil {
		return "", "", err
	}

	system := "A mental health practitioner is using you to ask questions about their patients' session notes. " +
		"Your main job is to fetch anything from their session notes. " +
		fmt.Sprintf("Start by sending a cheerful message about today being %s, and address them by their name, which is %s. ", p.Weekday, p.TherapistName) +
		"Finish off with a short fragment on productivity."

	user := "Write a welcoming message for the user. " +
		fmt.Sprintf("Your response should not go over 180 characters. To craft your response use language %s.", p.LanguageCode)

	return system, user, nil
}
