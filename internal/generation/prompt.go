package generation

import (
	"strings"
)

const reviewPromptHeader = `
You are an expert AI Code Reviewer. Review the following code written in **%LANGUAGE%** and provide a structured, markdown-formatted response that includes:

---

### 🔍 Code Review

1. 🐞 **Bugs & Logical Errors**: Point out any functional or runtime issues.
2. 🎯 **Code Quality & Best Practices**: Evaluate readability, structure, naming conventions, and maintainability.
3. 🔐 **Security Issues**: Highlight any potential vulnerabilities and suggest improvements.
4. ⚡ **Performance Optimizations**: Recommend improvements for speed and efficiency.
5. 💡 **Feature Enhancements**: Suggest cleaner, modern, or idiomatic approaches.
6. 🎨 **UI/UX Improvements**: If applicable, offer design, accessibility, and user experience enhancements.
7. 🧪 **Testing Recommendations**: Suggest any test cases or coverage improvements.

---

### 🛠️ Improved Code

Return a fully updated version of the code with your suggestions implemented. Keep it separate from the review so the user can copy the code and use it elsewhere.

---

### 📋 Summary of Changes

Provide a bullet-point list summarizing all key changes and why they were made.

---

Here is the code to review:

`

// BuildPrompt renders the review request for code. An empty language is
// described as unspecified and leaves the code fence without a hint.
func BuildPrompt(code, language string) string {
	language = strings.TrimSpace(language)
	name := language
	if name == "" {
		name = "an unspecified language"
	}

	var b strings.Builder
	b.WriteString(strings.Replace(reviewPromptHeader, "%LANGUAGE%", name, 1))
	b.WriteString("```")
	b.WriteString(language)
	b.WriteString("\n")
	b.WriteString(code)
	b.WriteString("\n```\n")
	return b.String()
}
