// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redact

// DefaultPatterns returns the built-in pattern set in registration
// order. Each call returns a fresh slice.
//
// Registration order only matters for candidates with identical spans;
// otherwise overlap resolution prefers the earliest, longest match.
func DefaultPatterns() []Pattern {
	return []Pattern{
		// API keys and tokens.
		{
			Name:        "OPENAI_API_KEY",
			Expression:  `sk-[a-zA-Z0-9]{48}`,
			Description: "OpenAI API Key",
			Level:       LevelMaximum,
			Replacement: "[OPENAI_API_KEY]",
		},
		{
			Name:        "ANTHROPIC_API_KEY",
			Expression:  `ANTHROPIC_API_KEY=[a-zA-Z0-9\-_]{40,}`,
			Description: "Anthropic API Key",
			Level:       LevelMaximum,
			Replacement: "ANTHROPIC_API_KEY=[REDACTED]",
		},
		{
			Name:        "GITHUB_TOKEN",
			Expression:  `ghp_[a-zA-Z0-9]{36}`,
			Description: "GitHub Personal Access Token",
			Level:       LevelMaximum,
			Replacement: "[GITHUB_TOKEN]",
		},
		{
			Name:        "GITHUB_SECRET",
			Expression:  `ghs_[a-zA-Z0-9]{36}`,
			Description: "GitHub Secret",
			Level:       LevelMaximum,
			Replacement: "[GITHUB_SECRET]",
		},

		// Database credentials.
		{
			Name:        "POSTGRES_URL",
			Expression:  `postgresql://[^@\s]+:[^@\s]+@[^/\s]+/\w+`,
			Description: "PostgreSQL Connection String",
			Level:       LevelMaximum,
			Replacement: "postgresql://[USER]:[PASS]@[HOST]/[DB]",
		},
		{
			Name:        "MONGODB_URL",
			Expression:  `mongodb\+srv://[^@\s]+:[^@\s]+@[^/\s]+`,
			Description: "MongoDB Connection String",
			Level:       LevelMaximum,
			Replacement: "mongodb+srv://[USER]:[PASS]@[HOST]",
		},
		{
			Name:        "MYSQL_URL",
			Expression:  `mysql://[^@\s]+:[^@\s]+@[^/\s]+/\w+`,
			Description: "MySQL Connection String",
			Level:       LevelMaximum,
			Replacement: "mysql://[USER]:[PASS]@[HOST]/[DB]",
		},

		// Cloud services.
		{
			Name:        "SUPABASE_URL",
			Expression:  `https://[a-zA-Z0-9]+\.supabase\.co`,
			Description: "Supabase Project URL",
			Level:       LevelHigh,
			Replacement: "https://[PROJECT].supabase.co",
		},
		{
			Name:        "JWT",
			Expression:  `eyJ[a-zA-Z0-9\-_=]+\.[a-zA-Z0-9\-_=]+\.[a-zA-Z0-9\-_=]+`,
			Description: "JWT Token",
			Level:       LevelMaximum,
			Replacement: "[JWT_TOKEN]",
		},
		{
			Name:        "AWS_ACCESS_KEY_ID",
			Expression:  `AKIA[0-9A-Z]{16}`,
			Description: "AWS Access Key ID",
			Level:       LevelMaximum,
			Replacement: "[AWS_ACCESS_KEY_ID]",
		},

		// Personal information.
		{
			Name:        "EMAIL",
			Expression:  `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`,
			Description: "Email Address",
			Level:       LevelMedium,
		},
		{
			Name:        "PHONE_JP",
			Expression:  `\b\d{3}-\d{4}-\d{4}\b`,
			Description: "Japanese Phone Number",
			Level:       LevelHigh,
			Replacement: "[PHONE_JP]",
		},
		{
			Name:        "PHONE_US",
			Expression:  `\b\d{3}-\d{3}-\d{4}\b`,
			Description: "US Phone Number",
			Level:       LevelHigh,
			Replacement: "[PHONE_US]",
		},
		{
			Name:        "CARD_NUMBER",
			Expression:  `\b\d{4}[\s\-]?\d{4}[\s\-]?\d{4}[\s\-]?\d{4}\b`,
			Description: "Credit Card Number",
			Level:       LevelMaximum,
			Replacement: "[CARD_NUMBER]",
		},
		{
			Name:        "SSN",
			Expression:  `\b\d{3}-\d{2}-\d{4}\b`,
			Description: "US Social Security Number",
			Level:       LevelMaximum,
			Replacement: "[SSN]",
		},

		// Home directories that embed a username.
		{
			Name:        "MACOS_HOME",
			Expression:  `/Users/[^/\s]+`,
			Description: "macOS User Directory",
			Level:       LevelLow,
			Replacement: "/Users/[USERNAME]",
		},
		{
			Name:        "LINUX_HOME",
			Expression:  `/home/[^/\s]+`,
			Description: "Linux Home Directory",
			Level:       LevelLow,
			Replacement: "/home/[USERNAME]",
		},
		{
			Name:        "WINDOWS_HOME",
			Expression:  `C:\\Users\\[^\\\s]+`,
			Description: "Windows User Directory",
			Level:       LevelLow,
			Replacement: `C:\Users\[USERNAME]`,
		},

		// Internal network addresses.
		{
			Name:        "PRIVATE_IP",
			Expression:  `\b(?:10\.|172\.(?:1[6-9]|2[0-9]|3[01])\.|192\.168\.)\d{1,3}\.\d{1,3}\b`,
			Description: "Private IP Address",
			Level:       LevelMedium,
			Replacement: "[PRIVATE_IP]",
		},

		// Secrets assigned inline. The key keeps its original spelling.
		{
			Name:        "PASSWORD_ASSIGNMENT",
			Expression:  `(password)\s*[:=]\s*["']?[^\s"']{8,}`,
			Description: "Password Assignment",
			Level:       LevelMaximum,
			Replacement: "${1}=[REDACTED]",
		},
		{
			Name:        "SECRET_ASSIGNMENT",
			Expression:  `(secret)\s*[:=]\s*["']?[^\s"']{8,}`,
			Description: "Secret Assignment",
			Level:       LevelMaximum,
			Replacement: "${1}=[REDACTED]",
		},
		{
			Name:        "API_KEY_ASSIGNMENT",
			Expression:  `(api_key)\s*[:=]\s*["']?[^\s"']{16,}`,
			Description: "API Key Assignment",
			Level:       LevelMaximum,
			Replacement: "${1}=[REDACTED]",
		},
	}
}
