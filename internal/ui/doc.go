package ui

// Package ui contains the Fyne-based desktop user interface for the application.
// It turns the URL form into download requests, renders one row per task with
// progress, speed and ETA, and wires cancel/restart/reveal actions to the
// download service. All UI strings go through Localization.
