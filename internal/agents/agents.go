package agents

import "strings"

// Agent is one rubric criterion scored by a single prompt/response
// round-trip. ScoreColumn and CommentColumn are the spreadsheet headers
// the grading run writes this agent's result into.
type Agent struct {
	Name          string
	MaxPoints     int
	ScoreColumn   string
	CommentColumn string
	template      string
}

// TotalColumn receives the sum of the four agent scores.
const TotalColumn = "Total (100)"

// BuildPrompt appends the essay and retrieved context to the agent's
// template. The two texts are appended verbatim; braces, quotes, and
// percent signs inside them are never interpreted.
func (a Agent) BuildPrompt(essay, ragContext string) string {
	return a.template + "\nEssay: " + essay + "\nRelevant Context: " + ragContext + "\n"
}

// Agents returns the four rubric agents in invocation order. The
// criteria texts and the 30/30/30/10 point split are fixed course
// rubric data, not tunables.
func Agents() []Agent {
	return []Agent{
		{
			Name:          "Identification and Order of Steps",
			MaxPoints:     30,
			ScoreColumn:   "Identification and Order of Steps (30)",
			CommentColumn: "Comment1",
			template:      agent1Template,
		},
		{
			Name:          "Explanation of Steps",
			MaxPoints:     30,
			ScoreColumn:   "Explanation of Steps (30)",
			CommentColumn: "Comment2",
			template:      agent2Template,
		},
		{
			Name:          "Understanding the Goals of the steps",
			MaxPoints:     30,
			ScoreColumn:   "Understanding the Goals of the steps (30)",
			CommentColumn: "Comment3",
			template:      agent3Template,
		},
		{
			Name:          "Clarity and Organization",
			MaxPoints:     10,
			ScoreColumn:   "Clarity and Organization (10)",
			CommentColumn: "Comment4",
			template:      agent4Template,
		},
	}
}

const roleDescription = `
You are a highly detailed evaluator. Generate **concise, specific feedback** with actionable suggestions, teaching-oriented examples, and a natural, supportive tone that acknowledges student efforts constructively while aligning with the rubric.
`

const feedbackInstructions = `
Evaluate the student's response with **concise, structured, and actionable feedback**. Follow these guidelines:

### **Feedback Structure**
   - **For strong responses:** Confirm correctness, then suggest refinements **only if they enhance clarity or strategic depth**.
   - **For mid-range responses:** Highlight strengths, but provide **clear, structured feedback on weak areas**.
   - **For weak responses:** Directly address misunderstandings with **precise, actionable next steps**.
   - **Avoid vague or repetitive feedback—each response should feel tailored.**
   - **Use {rag_context} for relevant guidance**, but do **not** just suggest “Review course material.” Instead, integrate key insights into the feedback.
   - If the response **is fundamentally incorrect**, the feedback should **focus on identifying errors, not refining ideas**.

### **Tone & Specificity**
   - **Be direct, specific, and instructive**, referencing exact parts of the response.
   - **Strictly maintain a neutral and professional tone**—clear and supportive, but not overly lenient.
   - **Use second-person phrasing**
   - **Adapt feedback intensity to response quality:**
     - **For perfect responses:** Recognize excellence without forced suggestions.
     - **For mid-range responses:** Provide **balanced, proportionate improvements**.
     - **For weak responses:** Be **clear and direct** about gaps while offering concrete next steps.
   - **Vary phrasing across scoring levels to prevent repetitive patterns.**
`

const jsonOutputFormat = `
### **Instructions**
You MUST return the output **strictly in JSON format**, without any additional text, explanations, or headings.
**Do NOT include any markdown (` + "` ``` `" + `), formatting, or extra commentary.**
**Do NOT wrap the JSON inside backticks or code blocks.**
Return the output as a **JSON object only**:
{
  "score": <total score 30>,
  "feedback": "<concise, clear feedback (in between 60-80 words)>"
}
`

const agent1Template = roleDescription + `
### **Agent 1: Identification and Order of Steps (30 Points)**

#### **Evaluation Criteria**
- **The response must list all four major steps in the correct order:**
  1. **Segmentation**
  2. **Targeting**
  3. **Differentiation**
  4. **Positioning**
- **Scoring is based solely on the order and presence of these steps.**
- **Do not evaluate explanations, reasoning, or depth**
- **Apply proportional deductions for errors:**
  - **Each step is worth 7.5 marks, if any of the steps are missing or incorrect deduct corresponding marks.**
  - If steps are **listed but in the wrong order**, deduct points and do grade partially.

#### **Scoring & Feedback Requirements:**
` + feedbackInstructions + jsonOutputFormat

const agent2Template = roleDescription + `
### **Agent 2: Explanation of Steps (30 Points)**
**Each of the four steps must be clearly explained with relevant details.**

#### **Evaluation Criteria**
- **If a response lacks explanation for all the 4 steps, it should STRICTLY receive 0 points.**
- **Partial grading should be based only on the depth of explanation per step.**
  - If a step is **explained vaguely**, apply **partial deductions**.
  - If **only 1-2 steps are explained in detail**, **cap the score at 10-15 points**.
  - If **3 steps are explained well**, **cap at 20-25 points**.

#### **Scoring & Feedback Requirements:**
` + feedbackInstructions + jsonOutputFormat

const agent3Template = roleDescription + `
### **Agent 3: Understanding the Goals of the Steps (30 Points)**

#### **Evaluation Criteria**
- **The response must differentiate the goals of the first two steps (customer selection) from the last two (value creation).**
  - **Segmentation & Targeting** focus on identifying customers.
  - **Differentiation & Positioning** focus on creating value and competitive advantage.
- **Responses must go beyond definitions and focus on strategic impact.**
- **Interdependence of steps:**
  - The response should **connect segmentation & targeting (customer selection) to differentiation & positioning (value creation).**
  - If the response includes a statement that follows the logic of:
    **In the first two steps, the company selects the customers that it will serve. In the final two steps, the company decides on a value proposition—how it will create value for target customers,"*
    then **full credit should be given for interlinking.**
  - If the interlinking is **partially present but lacks clarity**, **partial credit should be awarded** with feedback suggesting a stronger logical connection.
  - If there is **no logical connection** between the steps, **significant deductions should be applied**.

#### **Scoring & Feedback Requirements:**
` + feedbackInstructions + jsonOutputFormat

var agent4Template = `
### **Agent 4: Clarity and Organization (10 Points)**

#### **Evaluation Criteria**
- **Logical structure and readability must be strong.**
  - A well-organized response should follow a **clear sequence of ideas** with smooth transitions.
  - Disorganized or abrupt responses should receive deductions.

- **Grammar and sentence structure should support clarity.**
  - Minor grammar issues → slight deductions.
  - Major grammar issues affecting readability → larger deductions.
  - If the response seems abrutptly finished or incomplete, deduct marks accordingly.

- **Logical flow over correctness:**
  - Even if grammar is perfect, **if ideas jump around without clear connections, deductions apply.**

#### **Scoring & Feedback Requirements:**
` + feedbackInstructions + strings.ReplaceAll(jsonOutputFormat, "30", "10")
