package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "reel-summarize",
		Short: "ReelSummarize CLI - AI summaries for short-form video URLs",
		Long:  `A command-line interface for summarizing Instagram Reels, TikToks and similar short videos.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:7000", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(logsCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

var infoCmd = &cobra.Command{
	Use:   "info [url]",
	Short: "Resolve media metadata without summarizing",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		jsonOutput, _ := cmd.Flags().GetBool("json")
		payload := map[string]string{"url": args[0]}

		data, _ := json.Marshal(payload)
		resp, err := http.Post(serverURL+"/api/info", "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		if jsonOutput {
			printPrettyJSON(body)
			return
		}

		var result struct {
			Success   bool   `json:"success"`
			Error     string `json:"error"`
			MediaInfo struct {
				ID       string  `json:"id"`
				Title    string  `json:"title"`
				Uploader string  `json:"uploader"`
				Duration float64 `json:"duration"`
				Platform string  `json:"platform"`
			} `json:"media_info"`
		}
		json.Unmarshal(body, &result)

		if !result.Success {
			fmt.Fprintf(os.Stderr, "Error: %s\n", result.Error)
			os.Exit(1)
		}

		fmt.Printf("Media Info:\n")
		fmt.Printf("  ID:       %s\n", result.MediaInfo.ID)
		fmt.Printf("  Title:    %s\n", result.MediaInfo.Title)
		fmt.Printf("  Uploader: %s\n", result.MediaInfo.Uploader)
		fmt.Printf("  Duration: %s\n", formatDuration(result.MediaInfo.Duration))
		fmt.Printf("  Platform: %s\n", result.MediaInfo.Platform)
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [url]",
	Short: "Summarize a video URL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		quick, _ := cmd.Flags().GetBool("quick")
		metadataOnly, _ := cmd.Flags().GetBool("metadata-only")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		endpoint := serverURL + "/api/summarize"
		if quick || metadataOnly {
			endpoint = serverURL + "/api/summarize-quick"
		}

		payload := map[string]string{"url": args[0]}
		data, _ := json.Marshal(payload)

		resp, err := http.Post(endpoint, "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		if jsonOutput {
			printPrettyJSON(body)
			return
		}

		var result struct {
			Success        bool   `json:"success"`
			Summary        string `json:"summary"`
			GeneratedTitle string `json:"generated_title"`
			Method         string `json:"method"`
			Error          string `json:"error"`
			Locations      []struct {
				Name      string  `json:"name"`
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"locations"`
		}
		json.Unmarshal(body, &result)

		if !result.Success {
			fmt.Fprintf(os.Stderr, "Summarization failed: %s\n", result.Error)
			os.Exit(1)
		}

		if result.GeneratedTitle != "" {
			fmt.Printf("Title: %s\n", result.GeneratedTitle)
		}
		fmt.Printf("Method: %s\n\n", result.Method)
		fmt.Println(result.Summary)

		if len(result.Locations) > 0 {
			fmt.Println("\nGeocoded locations:")
			for _, loc := range result.Locations {
				fmt.Printf("  %s (%.5f, %.5f)\n", loc.Name, loc.Latitude, loc.Longitude)
			}
		}
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := http.Get(serverURL + "/health")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Server not reachable: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var health struct {
			Status           string `json:"status"`
			Version          string `json:"version"`
			GeminiConfigured bool   `json:"gemini_configured"`
		}
		json.Unmarshal(body, &health)

		fmt.Printf("Status:           %s\n", health.Status)
		fmt.Printf("Version:          %s\n", health.Version)
		fmt.Printf("Gemini configured: %v\n", health.GeminiConfigured)
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "View server logs (server, request, pipeline, error, download)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		category := "pipeline"
		if len(args) > 0 {
			category = args[0]
		}

		limit, _ := cmd.Flags().GetInt("limit")
		date, _ := cmd.Flags().GetString("date")
		search, _ := cmd.Flags().GetString("search")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		requestURL := fmt.Sprintf("%s/api/logs/%s?limit=%d", serverURL, category, limit)
		if search != "" {
			requestURL = fmt.Sprintf("%s/api/logs/%s/search?q=%s&limit=%d",
				serverURL, category, url.QueryEscape(search), limit)
		}
		if date != "" {
			requestURL += "&date=" + date
		}

		resp, err := http.Get(requestURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		if jsonOutput {
			printPrettyJSON(body)
			return
		}

		var result struct {
			Entries []struct {
				Timestamp string `json:"timestamp"`
				Level     string `json:"level"`
				Message   string `json:"message"`
			} `json:"entries"`
		}
		json.Unmarshal(body, &result)

		for _, entry := range result.Entries {
			fmt.Printf("%s [%s] %s\n", entry.Timestamp, entry.Level, entry.Message)
		}
	},
}

func init() {
	infoCmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	summarizeCmd.Flags().BoolP("quick", "q", false, "Metadata-only summary, skips the video download")
	summarizeCmd.Flags().Bool("metadata-only", false, "Same as --quick")
	summarizeCmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	logsCmd.Flags().IntP("limit", "n", 50, "Number of entries to show")
	logsCmd.Flags().String("date", "", "Log date (YYYY-MM-DD), defaults to today")
	logsCmd.Flags().String("search", "", "Filter entries containing this text")
	logsCmd.Flags().BoolP("json", "j", false, "Output in JSON format")
}

func printPrettyJSON(body []byte) {
	var result map[string]interface{}
	json.Unmarshal(body, &result)
	prettyJSON, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(prettyJSON))
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "unknown"
	}
	total := int(seconds)
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	return fmt.Sprintf("%dm %02ds", total/60, total%60)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
