package rag

import (
	"fmt"
	"strings"

	"coachrag/pkg/domain"
)

// NotReadyAnswer is returned as the chat answer while the first index
// build has not completed yet.
const NotReadyAnswer = "Le système RAG est en cours d'initialisation. Veuillez réessayer."

const qaSystemPrompt = `You are a recognized expert and a specialized coach in the field of **running, sports training, and performance nutrition**.
Your role is to provide accurate advice and detailed information. Answer the user's question with a professional and encouraging tone.

**Crucial Instructions for the Answer:**
1. **Primary Source:** Base your answer on the **Context** provided below as a priority for all specific, numerical, or factual information.
2. **Expert Knowledge:** If the context is insufficient or irrelevant to answer the question, use your general expert knowledge in running and nutrition to provide a useful and general answer.
3. **Format:** Your response **MUST** be structured in two sections with the following headings:
   - **CONCISE ANSWER:** A short, direct answer (1-2 sentences maximum).
   - **DETAILED EXPLANATION:** A complete explanation that elaborates on the concise answer, including all supporting facts from the context or your expertise.
4. **Transparency:** Never explicitly mention that you used the documents or that you are limited by the context.`

const programSystemPrompt = `Tu es un coach sportif expert en course à pied, préparation physique et nutrition sportive.
Tu rédiges des programmes d'entraînement personnalisés de 4 semaines, en français et au format Markdown.

Le programme doit contenir, dans cet ordre :
1. **Message de motivation** adapté au profil de l'athlète.
2. **Plan hebdomadaire détaillé** pour chacune des 4 semaines (séances, intensités, volumes, jours de repos).
3. **Conseils nutritionnels** cohérents avec l'objectif et les restrictions alimentaires.
4. **Conseils clés** pour la récupération et la prévention des blessures.

Appuie-toi en priorité sur le contexte documentaire fourni pour les recommandations factuelles.
Adapte la charge d'entraînement au temps disponible et au niveau d'activité indiqués.
Ne mentionne jamais les documents ou le contexte de manière explicite.`

// QAPrompt builds the user prompt for a retrieval-augmented question.
func QAPrompt(context, question string) (system, user string) {
	user = fmt.Sprintf("Context:\n%s\n\nQuestion: %s", context, question)
	return qaSystemPrompt, user
}

// ProgramPrompt builds the user prompt for program generation from the
// athlete profile and retrieved context.
func ProgramPrompt(params domain.UserParameters, context string) (system, user string) {
	var b strings.Builder
	b.WriteString("Profil de l'athlète :\n")
	writeField(&b, "Âge", intField(params.Age))
	writeField(&b, "Poids (kg)", floatField(params.WeightKg))
	writeField(&b, "Taille (cm)", intField(params.HeightCm))
	writeField(&b, "Genre", stringField(params.Gender))
	writeField(&b, "Heures d'entraînement par semaine", floatField(params.WeeklyTrainingHours))
	writeField(&b, "Heures de sommeil", floatField(params.SleepHours))
	writeField(&b, "Restrictions alimentaires", stringField(params.DietaryRestrictions))
	writeField(&b, "Équipement disponible", stringField(params.Equipment))
	writeField(&b, "Préférence d'entraînement", stringField(params.TrainingPreference))
	writeField(&b, "Objectif sportif", stringField(params.SportGoal))
	writeField(&b, "Niveau d'activité", stringField(params.ActivityLevel))
	b.WriteString("\nContexte documentaire :\n")
	b.WriteString(context)
	b.WriteString("\n\nRédige le programme d'entraînement de 4 semaines.")
	return programSystemPrompt, b.String()
}

// ProgramQuery builds the retrieval query for program generation from the
// most discriminating profile fields.
func ProgramQuery(params domain.UserParameters) string {
	parts := []string{"programme d'entraînement course à pied 4 semaines"}
	if params.SportGoal != nil && strings.TrimSpace(*params.SportGoal) != "" {
		parts = append(parts, "objectif "+strings.TrimSpace(*params.SportGoal))
	}
	if params.ActivityLevel != nil && strings.TrimSpace(*params.ActivityLevel) != "" {
		parts = append(parts, "niveau "+strings.TrimSpace(*params.ActivityLevel))
	}
	if params.Equipment != nil && strings.TrimSpace(*params.Equipment) != "" {
		parts = append(parts, "équipement "+strings.TrimSpace(*params.Equipment))
	}
	return strings.Join(parts, ", ")
}

// BuildContext joins retrieved chunk contents into the prompt context block.
func BuildContext(chunks []domain.RetrievedChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Content)
	}
	return strings.Join(parts, "\n\n")
}

const missingField = "non renseigné"

func writeField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "- %s : %s\n", label, value)
}

func intField(v *int) string {
	if v == nil {
		return missingField
	}
	return fmt.Sprintf("%d", *v)
}

func floatField(v *float64) string {
	if v == nil {
		return missingField
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", *v), "0"), ".")
}

func stringField(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return missingField
	}
	return strings.TrimSpace(*v)
}
