package models

// Seed returns the built-in starter records used when no persisted data exists anywhere.
// Every call returns a fresh copy.
func Seed() []Prompt {
	return CloneAll(seedPrompts)
}

var seedPrompts = []Prompt{
	{
		ID:            "1",
		Category:      CategoryMarketing,
		Name:          "Post de LinkedIn",
		Objective:     "Escribir un post persuasivo en LinkedIn sobre un nuevo producto",
		InputType:     "Características del producto",
		Persona:       "Copywriter Senior experto en B2B",
		RecommendedAI: AIModelChatGPT,
		Description:   "Usar estructura AIDA para maximizar engagement.",
		Content:       "Actúa como un [Rol]. Escribe una publicación de LinkedIn sobre [Producto]. Usa un gancho fuerte en la primera línea. El objetivo es [Objetivo]. Usa párrafos cortos y emojis estratégicos. Termina con una llamada a la acción preguntando [Pregunta].",
		Variables:     []string{"Rol", "Producto", "Objetivo", "Pregunta"},
		UsageExamples: "",
		Tags:          []string{"Redes Sociales", "Ventas", "Persuasión"},
	},
	{
		ID:            "2",
		Category:      CategoryProductivity,
		Name:          "Asuntos de email",
		Objective:     "Crear líneas de asunto efectivas para correos electrónicos de ventas en frío",
		InputType:     "Propuesta de valor",
		Persona:       "Especialista en Email Marketing",
		RecommendedAI: AIModelClaude,
		Description:   "Generar 10 opciones variando entre curiosidad y beneficio directo.",
		Content:       "Genera 10 líneas de asunto para un correo de ventas frías dirigido a [Cargo del Cliente]. La propuesta de valor principal es [Beneficio]. Los asuntos deben ser cortos (menos de 50 caracteres), intrigantes y evitar palabras spam.",
		Variables:     []string{"Cargo del Cliente", "Beneficio"},
		UsageExamples: "",
		Tags:          []string{"Email", "Ventas", "Corto"},
	},
	{
		ID:            "3",
		Category:      CategoryCreativity,
		Name:          "Resumen de reuniones",
		Objective:     "Resumir reuniones de manera estructurada y con acciones concretas",
		InputType:     "Transcripción de la reunión",
		Persona:       "Project Manager eficiente",
		RecommendedAI: AIModelGemini,
		Description:   "Ideal para ventanas de contexto largas.",
		Content:       "Analiza la siguiente transcripción de reunión: [Transcripción]. \n1. Extrae los 3 puntos clave discutidos.\n2. Lista todas las tareas asignadas en formato tabla (Quién, Qué, Para cuándo).\n3. Identifica cualquier bloqueo o riesgo mencionado.\n4. Redacta un email de seguimiento formal para los asistentes.",
		Variables:     []string{"Transcripción"},
		UsageExamples: "",
		Tags:          []string{"Gestión", "Resumen", "Accionable"},
	},
	{
		ID:            "4",
		Category:      CategoryAnalysis,
		Name:          "Planificación de proyectos",
		Objective:     "Diseñar un plan de proyecto estructurado desde cero",
		InputType:     "Objetivo del proyecto",
		Persona:       "Director de Operaciones",
		RecommendedAI: AIModelGemini,
		Description:   "",
		Content:       "Crea un plan de proyecto detallado para [Nombre del Proyecto]. Incluye fases, hitos principales, recursos necesarios y una estimación de riesgos potenciales. El plazo total es de [Duración].",
		Variables:     []string{"Nombre del Proyecto", "Duración"},
		UsageExamples: "",
		Tags:          []string{"Planificación", "Estrategia"},
	},
}
