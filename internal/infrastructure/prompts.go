package infrastructure

// System instruction for the AI summarizer.
const summarySystemInstruction = `You are a helpful assistant that summarizes social media video content (Instagram Reels, TikToks, etc.).
Your summaries should be:
- Concise and easy to read on mobile
- Informative and capture the key points
- Written in a friendly, engaging tone
- Formatted with clear structure`

// Prompt for video-based summarization.
const videoSummaryPrompt = `
Please analyze the provided video and generate a report using the following defined sections. Ensure the formatting is optimized for mobile (short paragraphs and bullet points).

### 🏷️ Title:
Create a catchy, descriptive title (5-10 words) that captures the essence of this content. Make it engaging and informative. Just the title text, no quotes.

### 📝 Executive Summary
Provide a 2-3 sentence overview of the video's core purpose and narrative.

### 🔍 Key Topics & Themes
List the primary subjects or themes discussed using bullet points.

### 💡 Highlights & Takeaways
- **Products/Tools:** [Mention specific products and their key features]
- **Key Insights:** [List the most important takeaways or spoken points]
- **Notable Moments:** [Describe any specific scenes or events of interest]

### 📍 Locations:
List specific geographical locations, venues, cities, countries, or landmarks mentioned or shown in the video.
Format: One location per line, just the name (e.g., "Paris, France" or "Central Park, New York").
If no specific locations are identifiable, write exactly: "None mentioned"

---
**Constraint:** If the content is educational, focus on the "how-to." If it is entertainment, focus on the plot/action.
`

// Prompt suffix for metadata-based summarization.
const metadataSummaryPrompt = `
Please provide:
1. A brief 2-3 sentence summary of what this content is about
2. Key topics or themes covered
3. Any notable highlights or takeaways

Keep the summary concise but informative. Format it nicely for mobile display.`
