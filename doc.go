/*Package dronescript runs short learner-written scripts against a simulated or physical
micro-quadrotor, then grades the resulting flight against a mission's success criteria.

Disclaimer

The hardware side speaks a CRTP-style datagram protocol and has been developed by examining the packets
sent to and from small open-firmware quadrotors.  Use this package at your own risk.  The author(s) is/are in
no way responsible for any damage caused either to or by the drone when using this software.

Features

The following features have been implemented...
  * A forgiving, line-oriented script parser with many verb aliases, eg. drone.climb(2), drone.turn_left()
  * Advisory checks for missing takeoff or landing
  * A 20 Hz kinematic simulation of every command
  * Hardware flight over UDP using fixed setpoint presets, with a polled telemetry cache
  * Mission grading with a score derived from how closely the targets were met
  * Cancellable runs: starting a new run or calling Stop() supersedes the live one
  * A run journal (package journal) and a command-line runner (cmd/dronescript)

Concepts

Scripts

A script is a flat sequence of statements, one or more per line separated by semicolons.
  drone.takeoff()
  drone.forward(2)   # metres
  drone.rotate_cw(90)
  drone.hover(1500)  # milliseconds
  print("done")
  drone.land()
There is no control flow, lines that do not look like a drone command are ignored.

Modes

In ModeSimulation the engine integrates the pose itself.  In ModeHardware it also streams a control setpoint
to the drone on every tick through a Transport (usually a *Link); the pose is still dead-reckoned so that
the flight can be graded.  A hardware run fails straight away if the drone cannot be found.

Funcs vs. Channels

Run state is available both as single-shot calls on a *Run, eg. Pose(), Summary(), and as streams from the
Engine, eg. SubscribePoses(), SubscribeConsole().  The streams never block the engine; a subscriber that
falls behind simply misses updates.

*/
package dronescript
