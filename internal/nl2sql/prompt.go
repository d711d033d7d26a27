package nl2sql

import (
	"fmt"
	"strings"

	"github.com/dataagent/dataagent/internal/query"
)

const sqlRules = `Règles STRICTES :
- Utilise UNIQUEMENT les tables et colonnes listées ci-dessus
- N’invente JAMAIS de colonnes ou de tables
- Respecte la syntaxe SQLite
- Si une jointure est nécessaire, utilise les clés logiques (customer_id, product_id)
- Ne mets AUCUN commentaire
- Ne mets AUCUN texte explicatif
- Retourne UNIQUEMENT la requête SQL valide`

// BuildSQLPrompt renders the SQL generation prompt for the shop schema. The
// question is embedded verbatim.
func BuildSQLPrompt(question string) string {
	return BuildSQLPromptForSchema(ShopSchema(), question)
}

func BuildSQLPromptForSchema(schema Schema, question string) string {
	var b strings.Builder
	b.WriteString("Tu es un expert SQL spécialisé en SQLite.\n\n")
	b.WriteString("Contexte :\nTu disposes uniquement du schéma suivant :\n\n")
	b.WriteString(schema.Describe())
	b.WriteString("\n")
	b.WriteString(sqlRules)
	b.WriteString("\n\nTâche :\nGénère la requête SQL correspondant exactement à la question suivante :\n\n")
	fmt.Fprintf(&b, "\"%s\"\n", question)
	fmt.Fprintf(&b, "Si la question ne concerne pas les clients, produits ou commandes, retourne \"%s\".\n", Sentinel)
	return b.String()
}

// BuildAnswerPrompt asks the chat model to phrase rows as a short French
// answer to question. Rows are embedded as a JSON array.
func BuildAnswerPrompt(question string, rows query.ResultSet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tu es un assistant intelligent. Un utilisateur a posé la question : \"%s\"\n", question)
	fmt.Fprintf(&b, "Les données récupérées de la base de données sont : %s\n\n", rows.Render())
	b.WriteString("Rédige une réponse claire et concise en français en langage naturel basée sur ces données.\n")
	b.WriteString("Si les données sont vides, indique qu'aucune information n'a été trouvée.\n")
	return b.String()
}
