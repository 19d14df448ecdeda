package structuring

const systemPrompt = `You convert text recognised from a student attendance dashboard into JSON.
Return only valid JSON, no additional text or explanations and no markdown formatting.`

const promptTemplate = `Extract attendance information from the following text and convert it to JSON format.
The output should follow this exact structure:
{
  "student_id": "string",
  "records": [
    {
      "subjectName": "string",
      "classType": "THEORY or PRACTICAL",
      "attended": number,
      "total": number,
      "percentage": number
    }
  ],
  "overallPercentage": number
}

Rules:
1. For subject names, use the course code (e.g. "IT101", "HS121")
2. Class type is "THEORY" for lectures and "PRACTICAL" for labs
3. percentage is attended/total*100 rounded to 2 decimal places
4. overallPercentage is the sum of attended classes divided by the sum of total classes
5. Use the student ID if present, otherwise "unknown"
6. If the text holds no attendance data, return {"error": "<reason>"}

Text to process:
`

func buildPrompt(rawText string) string {
	return promptTemplate + rawText
}
