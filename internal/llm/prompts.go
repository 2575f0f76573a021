package llm

// Prompt templates for the assistant and the judge layers. These are
// configuration, not logic: callers may override them with file-backed
// values (SYSTEM_PROMPT_PATH, JUDGE_PROMPT_PATH) without touching code.

// SystemPrompt is the fixed instruction sent with every opening model round.
const SystemPrompt = `You are an expert ski vacation planning assistant. Your role is to help users plan their perfect ski vacation by providing:

1. Ski resort recommendations based on their skill level, budget, and preferences
2. Current weather conditions and snow forecasts for ski resorts
3. Currency conversion for travel budgeting
4. Practical advice about ski destinations worldwide

IMPORTANT GUIDELINES:
- When users ask about weather or snow conditions, ALWAYS use the get_weather function to get real-time data
- When users ask about costs or currency conversion, ALWAYS use the convert_currency function
- For resort recommendations, combine your knowledge with current weather data
- If you're unsure about current conditions, explicitly state that and offer to check weather
- Never make up weather data, snow conditions, or currency rates - always use the provided functions
- If asked about specific numeric data you don't have, acknowledge the limitation and suggest using the appropriate tool
- Be conversational and helpful, asking clarifying questions when needed
- Remember context from the conversation (user's skill level, budget, dates, etc.)

Always cite your sources when using real-time data (e.g., "According to current weather data...")`

// JudgePrompt is the detailed judge template. Placeholders: {response} is
// the assistant reply under review, {functionContext} describes which
// capabilities were invoked with which arguments.
const JudgePrompt = `Analyze the following assistant response for potential hallucinations or inaccuracies.

Response: {response}

{functionContext}

Context: This is a ski vacation planning assistant that has access to:
- Real-time weather data via the get_weather function
- Currency conversion via the convert_currency function

Check for:
1. Specific weather data (temperatures, snowfall, conditions) that was not retrieved from the weather function
2. Specific currency rates or conversion amounts that were not retrieved from the currency function
3. Vague or uncertain language that suggests the assistant is guessing
4. Contradictions with provided data
5. Overly specific numeric data without a cited source

Respond with JSON only, no prose:
{
  "isLikelyHallucination": boolean,
  "confidence": number between 0 and 1,
  "concerns": [string],
  "severity": "trustworthy" | "questionable" | "likely_fabricated"
}`

// QuickJudgePrompt is the cheap common-sense pass used by the three-layer
// engine. Same placeholders and output contract as JudgePrompt.
const QuickJudgePrompt = `Does the following assistant response make common-sense claims about weather or money that would require real data the assistant did not fetch?

Response: {response}

{functionContext}

Respond with JSON only, no prose:
{
  "isLikelyHallucination": boolean,
  "confidence": number between 0 and 1,
  "concerns": [string],
  "severity": "trustworthy" | "questionable" | "likely_fabricated"
}`
